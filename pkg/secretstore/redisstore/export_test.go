package redisstore

func EnableScript() string { return luaEnable }
