package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "dispatch",
	Pass: "dispatch",
	Name: "dispatch_console",
}

var defaultKafka = Kafka{
	Topic:   "restaurant.orders",
	GroupID: "dispatch-console",
}

var defaultIdentity = Identity{
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       5,
	Burst:      10,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

var defaultDispatch = Dispatch{
	MaxPrepTimeMinutes:    180,
	ConflictRetryAttempts: 3,
	MaxClaimDistanceKm:    0, // 0 disables the distance filter
	SubscriberBuffer:      64,
}

// DefaultPort returns the default port.
func DefaultPort() int { return defaultPort }

// DefaultDB returns the default database settings.
func DefaultDB() DB { return defaultDB }

// DefaultKafka returns the default intake consumer settings.
func DefaultKafka() Kafka { return defaultKafka }

// DefaultIdentity returns the default identity gateway settings.
func DefaultIdentity() Identity { return defaultIdentity }

// DefaultRateLimit returns the default claim rate limiting settings.
func DefaultRateLimit() RateLimit { return defaultRateLimit }

// DefaultDispatch returns the default coordinator settings.
func DefaultDispatch() Dispatch { return defaultDispatch }
