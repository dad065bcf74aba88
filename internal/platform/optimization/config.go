// Package optimization provides concurrency tuning for high load.
// Buffer and pool sizes scale with the host CPU count.
package optimization

import (
	"runtime"
)

// Config holds tuned parameters for high-load scenarios.
type Config struct {
	// Channel buffer sizes
	BroadcastChannelBuffer int
	ClientSendBuffer       int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int
	RedisPoolSize  int

	// Rate limiting
	MaxTapsPerSecond  int // per WebSocket client
	MaxClientsPerNode int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		// Channel buffers - larger = more memory, less blocking
		BroadcastChannelBuffer: 256,
		ClientSendBuffer:       64,

		// Database connections
		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,

		// Redis
		RedisPoolSize: numCPU * 2,

		// Rate limits
		MaxTapsPerSecond:  20,
		MaxClientsPerNode: 2000,
	}
}

// StressTestConfig returns aggressive settings for stress testing.
func StressTestConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		BroadcastChannelBuffer: 512,
		ClientSendBuffer:       128,

		DBMaxOpenConns: numCPU * 8,
		DBMaxIdleConns: numCPU * 4,
		RedisPoolSize:  numCPU * 4,

		MaxTapsPerSecond:  100,
		MaxClientsPerNode: 5000,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		BroadcastChannelBuffer: 16,
		ClientSendBuffer:       8,

		DBMaxOpenConns: 5,
		DBMaxIdleConns: 2,
		RedisPoolSize:  5,

		MaxTapsPerSecond:  10,
		MaxClientsPerNode: 50,
	}
}

// ForProfile maps a config profile name to a tuning preset.
func ForProfile(profile string) *Config {
	switch profile {
	case "stress":
		return StressTestConfig()
	case "low":
		return LowResourceConfig()
	default:
		return DefaultConfig()
	}
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseSendBuffer    bool
	IncreaseDBConnections bool
	LowerTapRateLimit     bool
	Notes                 []string
}

// Analyze examines a metrics snapshot and returns tuning recommendations.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	// Check storage write latency
	if storage, ok := metrics["storage"].(map[string]interface{}); ok {
		if maxLat, ok := storage["max_write_lat_ms"].(float64); ok && maxLat > 50 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Player write latency exceeds 50ms - increase DB connections")
		}
		if errors, ok := storage["errors"].(int64); ok && errors > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Player write errors detected - check DB connection pool")
		}
	}

	// Heavy CAS contention means clients hammer single players faster
	// than storage can serialize them
	if economy, ok := metrics["economy"].(map[string]interface{}); ok {
		if fails, ok := economy["conflict_failures"].(int64); ok && fails > 0 {
			rec.LowerTapRateLimit = true
			rec.Notes = append(rec.Notes, "CAS retry budget exhausted - lower the per-client tap rate")
		}
	}

	// Check WebSocket backpressure
	if ws, ok := metrics["websocket"].(map[string]interface{}); ok {
		if errors, ok := ws["errors"].(int64); ok && errors > 0 {
			rec.IncreaseSendBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
	}

	return rec
}

// ApplyRecommendations modifies config based on recommendations.
func ApplyRecommendations(config *Config, rec *Recommendations) *Config {
	if rec.IncreaseSendBuffer {
		config.BroadcastChannelBuffer *= 2
		config.ClientSendBuffer *= 2
	}
	if rec.IncreaseDBConnections {
		config.DBMaxOpenConns = int(float64(config.DBMaxOpenConns) * 1.5)
		config.DBMaxIdleConns = int(float64(config.DBMaxIdleConns) * 1.5)
	}
	if rec.LowerTapRateLimit && config.MaxTapsPerSecond > 5 {
		config.MaxTapsPerSecond /= 2
	}
	return config
}
