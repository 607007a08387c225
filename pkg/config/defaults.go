// Package config provides centralized default values for Caseboard
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Data Service Connection
	DataServiceURL   string
	DataServiceToken string
	RealtimeURL      string
	SQLitePath       string

	// Database Pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int

	// Cache Freshness
	RecordFreshTTL time.Duration
	ListFreshTTL   time.Duration
	CacheGCHorizon time.Duration

	// Invalidation Quiet Windows
	RecordQuietWindow time.Duration
	ListQuietWindow   time.Duration

	// Poll Fallback
	SyncPollInterval time.Duration

	// Realtime Reconnection
	ReconnectMaxAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	BroadcastTopic       string
	InvestigationsTable  string

	// Fetch Retry
	FetchMaxAttempts int
	FetchBaseDelay   time.Duration
	FetchMaxDelay    time.Duration

	// Cleanup Intervals
	CleanupInterval time.Duration
	CleanupVerbose  bool

	// Ops Auth
	JWTSecret            string
	OperatorPasswordHash string

	// Slow Query Threshold
	SlowQueryThreshold time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Data Service Connection
	DataServiceURL = getEnvString("DATA_SERVICE_URL", "")
	DataServiceToken = getEnvString("DATA_SERVICE_TOKEN", "")
	RealtimeURL = getEnvString("REALTIME_URL", "")
	SQLitePath = getEnvString("SQLITE_PATH", "caseboard.db")

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)

	// Cache Freshness
	RecordFreshTTL = getEnvDuration("RECORD_FRESH_TTL", 2*time.Minute)
	ListFreshTTL = getEnvDuration("LIST_FRESH_TTL", 5*time.Minute)
	CacheGCHorizon = getEnvDuration("CACHE_GC_HORIZON", 30*time.Minute)

	// Invalidation Quiet Windows
	RecordQuietWindow = getEnvDuration("RECORD_QUIET_WINDOW", 30*time.Second)
	ListQuietWindow = getEnvDuration("LIST_QUIET_WINDOW", 10*time.Second)

	// Poll Fallback
	SyncPollInterval = getEnvDuration("SYNC_POLL_INTERVAL", 5*time.Minute)

	// Realtime Reconnection
	ReconnectMaxAttempts = getEnvInt("RECONNECT_MAX_ATTEMPTS", 5)
	ReconnectBaseDelay = getEnvDuration("RECONNECT_BASE_DELAY", 2*time.Second)
	ReconnectMaxDelay = getEnvDuration("RECONNECT_MAX_DELAY", 10*time.Second)
	BroadcastTopic = getEnvString("BROADCAST_TOPIC", "investigations-changes")
	InvestigationsTable = getEnvString("INVESTIGATIONS_TABLE", "investigations")

	// Fetch Retry
	FetchMaxAttempts = getEnvInt("FETCH_MAX_ATTEMPTS", 3)
	FetchBaseDelay = getEnvDuration("FETCH_BASE_DELAY", 500*time.Millisecond)
	FetchMaxDelay = getEnvDuration("FETCH_MAX_DELAY", 8*time.Second)

	// Cleanup Intervals
	CleanupInterval = getEnvDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute)
	CleanupVerbose = getEnvString("CACHE_CLEANUP_VERBOSE", "false") == "true"

	// Ops Auth
	JWTSecret = getEnvString("JWT_SECRET", "")
	OperatorPasswordHash = getEnvString("OPERATOR_PASSWORD_HASH", "")

	// Slow Query Threshold
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)
}
