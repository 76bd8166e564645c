package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// entry holds one parsed configuration type.
type entry struct {
	once  sync.Once
	value any
	err   error
}

var (
	cache   sync.Map // reflect.Type -> *entry
	envOnce sync.Once
)

// LoadEnvFiles reads the given dotenv files into the process environment
// without overriding variables that are already set. With no arguments it
// reads ./.env. It only has an effect the first time it is called, and Load
// calls it implicitly.
func LoadEnvFiles(paths ...string) error {
	var err error
	loaded := false
	envOnce.Do(func() {
		loaded = true
		if len(paths) == 0 {
			// A missing default .env is fine.
			_ = godotenv.Load()
			return
		}
		if loadErr := godotenv.Load(paths...); loadErr != nil {
			err = errors.Join(ErrEnvFile, loadErr)
		}
	})
	if !loaded && len(paths) > 0 {
		return ErrEnvAlreadyLoaded
	}
	return err
}

// Load parses environment variables into a T using its `env` struct tags.
// Each type is parsed once per process and served from cache afterwards.
// Failed parses are not cached.
//
//	cfg, err := config.Load[totp.Config]()
func Load[T any]() (T, error) {
	_ = LoadEnvFiles()

	key := reflect.TypeFor[T]()
	if key == nil || key.Kind() != reflect.Struct {
		var zero T
		return zero, ErrInvalidConfigType
	}

	actual, _ := cache.LoadOrStore(key, &entry{})
	e := actual.(*entry)
	e.once.Do(func() {
		var v T
		if err := env.Parse(&v); err != nil {
			e.err = errors.Join(ErrParsingConfig, err)
			return
		}
		e.value = v
	})

	if e.err != nil {
		cache.CompareAndDelete(key, e)
		var zero T
		return zero, e.err
	}
	return e.value.(T), nil
}

// MustLoad is like Load but panics on failure. Use it for configuration the
// process cannot start without.
func MustLoad[T any]() T {
	v, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration %s: %v", reflect.TypeFor[T](), err))
	}
	return v
}

// Reset drops all cached configurations. Intended for tests.
func Reset() {
	cache.Clear()
}
