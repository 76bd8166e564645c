package ratelimiter

func ConsumeScript() string { return luaConsume }
