package config

import "time"

type AppConfig struct {
	NodeId string // node id, goes into snowflake ids and the presence mirror
	Port   int    // http/ws listen port

	// session liveness
	HeartbeatInterval time.Duration // expected client heartbeat cadence
	TimeoutMultiplier int           // deadline = interval * multiplier
	SweepEvery        time.Duration // registry sweep period

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI string
	MongoDB  string

	JwtSecret []byte
	JwtTTL    time.Duration
}
