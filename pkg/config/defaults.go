// Package config provides centralized default values for Foresight
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
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

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
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

	// Session Lifecycle
	MaxSessionAge        time.Duration
	SessionSweepInterval time.Duration
	SessionSweepVerbose  bool
	MaxSessions          int

	// Upload Limits
	MaxUploadBytes  int64
	PreviewRowLimit int

	// Prophet Backend
	ProphetAPIURL  string
	ProphetTimeout time.Duration

	// SSE Configuration
	MaxSSEConnections           int
	SSEHeartbeatIntervalSeconds int

	// Ops Dashboard
	OpsSnapshotInterval time.Duration
	OpsPasswordHash     string

	// Sharing
	JWTSecret     string
	ShareTokenTTL time.Duration

	// Model Registry
	RegistryDBURL   string
	RegistryDBToken string

	// Email (report sharing)
	ResendAPIKey  string
	EmailFromName string
	EmailFromAddr string
	EmailEnabled  bool
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Session Lifecycle
	MaxSessionAge = time.Duration(getEnvInt("MAX_SESSION_AGE_MINUTES", 120)) * time.Minute
	SessionSweepInterval = time.Duration(getEnvInt("SESSION_SWEEP_INTERVAL_SECONDS", 60)) * time.Second
	SessionSweepVerbose = getEnvBool("SESSION_SWEEP_VERBOSE", false)
	MaxSessions = getEnvInt("MAX_SESSIONS", 5000)

	// Upload Limits
	MaxUploadBytes = getEnvInt64("MAX_UPLOAD_BYTES", 10*1024*1024)
	PreviewRowLimit = getEnvInt("PREVIEW_ROW_LIMIT", 100)

	// Prophet Backend
	ProphetAPIURL = getEnvString("PROPHET_API_URL", "http://localhost:8000")
	ProphetTimeout = getEnvDuration("PROPHET_TIMEOUT", 120*time.Second)

	// SSE Configuration
	MaxSSEConnections = getEnvInt("MAX_SSE_CONNECTIONS", 1000)
	SSEHeartbeatIntervalSeconds = getEnvInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)

	// Ops Dashboard
	OpsSnapshotInterval = time.Duration(getEnvInt("OPS_SNAPSHOT_INTERVAL_SECONDS", 20)) * time.Second
	OpsPasswordHash = getEnvString("OPS_PASSWORD_HASH", "")

	// Sharing
	JWTSecret = getEnvString("JWT_SECRET", "")
	ShareTokenTTL = time.Duration(getEnvInt("SHARE_TOKEN_TTL_HOURS", 24)) * time.Hour

	// Model Registry
	RegistryDBURL = getEnvString("REGISTRY_DB_URL", "")
	RegistryDBToken = getEnvString("REGISTRY_DB_TOKEN", "")

	// Email (report sharing)
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "Foresight")
	EmailFromAddr = getEnvString("EMAIL_FROM_ADDR", "noreply@foresight.local")
	EmailEnabled = ResendAPIKey != ""
}
