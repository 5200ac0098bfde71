package realtime

import (
	"jobmarket"

	"github.com/nats-io/nats.go"
)

type Config struct {
	NatsURL      string
	TenantID     string
	JWTSecret    string
	RealtimePort string
}

func LoadConfig() Config {
	return Config{
		NatsURL:      jobmarket.GetEnv("NATS_URL", nats.DefaultURL),
		TenantID:     jobmarket.GetEnv("TENANT_ID", "default"),
		JWTSecret:    jobmarket.GetEnv("JWT_SECRET", ""),
		RealtimePort: jobmarket.GetEnv("REALTIME_PORT", ":8081"),
	}
}
