package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Helper to get a string env with default.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// Helper to get an int env with default.
func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid int for config %s=%q, using default %d", key, valueStr, fallback)
		return fallback
	}
	return val
}

// Helper to get an int64 env with default.
func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	val, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Warning: Invalid int64 for config %s=%q, using default %d", key, valueStr, fallback)
		return fallback
	}
	return val
}

// Helper to get a duration env with default. Accepts Go duration syntax
// ("30s", "1m") so test setups can shrink timers.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	val, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for config %s=%q, using default %s", key, valueStr, fallback)
		return fallback
	}
	return val
}

// Helper to get a comma-separated list env with default. Entries are trimmed
// and upper-cased, empty entries dropped.
func getEnvAsList(key string, fallback []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return fallback
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
