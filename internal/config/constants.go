package config

import "time"

// Realtime hub
const (
	HubConnectTimeout = 15 * time.Second
	HubInvokeTimeout  = 30 * time.Second
)

// Orchestrator queues
const (
	CommandQueueSize = 64
	EventQueueSize   = 256
)

// Local control API timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 10 * time.Second
)

// Database connection pool settings
const (
	DBMaxOpenConns    = 5
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
	DBPingTimeout     = 5 * time.Second
)

// Background job intervals
const ArchivePruneInterval = time.Hour

// Default rate limiting for the control API login endpoint
const LoginAttemptsPerMin = 5
