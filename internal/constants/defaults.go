package constants

// Default listener configuration values
const (
	DefaultListenAddr       = "0.0.0.0"
	DefaultListenPort       = 8123
	DefaultReadTimeoutSec   = 15
	DefaultWriteTimeoutSec  = 15
	DefaultIdleTimeoutSec   = 60
	DefaultShutdownGraceSec = 10
	ServerErrorChannelSize  = 1
)

// Default reconciliation configuration values
const (
	DefaultSweepIntervalSec   = 30
	DefaultPendingIntervalSec = 10
	DefaultTickQueueSize      = 256
)

// Default game API configuration values
const (
	DefaultGameAPITimeoutSec = 10
	DefaultGameAPIRetries    = 3
)

// Default retry/backoff values
const (
	DefaultBackoffInitialMs    = 500
	DefaultBackoffMaxMs        = 30000
	DefaultHistoryInitAttempts = 3
)

// Sentinel identity used by the web platform for connectivity probes.
// Requests carrying this exact pair are acknowledged without side effects.
const (
	SentinelPlayerName = "TestPlayer"
	SentinelStreamer   = "TestStreamer"
)
