package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". Empty Attr for nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under "user_id". Empty Attr for "".
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// State records a flow state under "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Transition records a state change as a "transition" group.
func Transition(from, to, event string) slog.Attr {
	return Group("transition",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("event", event),
	)
}

// Outcome records the result reported to the caller under "outcome".
func Outcome(name string) slog.Attr {
	return slog.String("outcome", name)
}

// Flow records which flow (enrollment, login, ...) produced the record.
func Flow(name string) slog.Attr {
	return slog.String("flow", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
