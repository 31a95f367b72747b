package config

import (
	"os"
	"strconv"
	"time"

	"UniChat/logger"
	"UniChat/tools/ids"
)

var Global = AppConfig{
	NodeId: "chat_gw-1",
	Port:   8080,

	HeartbeatInterval: 25 * time.Second,
	TimeoutMultiplier: 2,
	SweepEvery:        10 * time.Second,

	RedisAddr: "127.0.0.1:6379",
	RedisDB:   0,

	MongoURI: "mongodb://127.0.0.1:27017",
	MongoDB:  "unichat",

	JwtSecret: []byte("mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o="),
	JwtTTL:    2 * time.Hour,
}

// ConfigAll applies env overrides and initializes the id generator.
func ConfigAll() {
	ConfigEnv()
	ConfigIds()
}

func ConfigEnv() {
	if v := os.Getenv("NODE_ID"); v != "" {
		Global.NodeId = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			Global.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		Global.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		Global.RedisPassword = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		Global.MongoURI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		Global.MongoDB = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		Global.JwtSecret = []byte(v)
	}
}

func ConfigIds() {
	n := nodeNumber(Global.NodeId)
	logger.Infof("configure id generator node=%s num=%d", Global.NodeId, n)
	ids.SetNodeID(n)
}

// nodeNumber extracts the trailing digits of a node name ("chat_gw-3" -> 3)
// so two gateways never stamp the same ids.
func nodeNumber(name string) int64 {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	n, err := strconv.ParseInt(name[i:], 10, 64)
	if err != nil {
		return 1
	}
	return n
}

func GetJwtSecret() []byte {
	return Global.JwtSecret
}

// HeartbeatDeadline is how long a session may stay silent before eviction.
func (c *AppConfig) HeartbeatDeadline() time.Duration {
	m := c.TimeoutMultiplier
	if m <= 0 {
		m = 2
	}
	return time.Duration(m) * c.HeartbeatInterval
}
