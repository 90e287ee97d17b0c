package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Tally engine
	Timezone    string
	UnitKeyword string
	GroupMode   bool
	Groups      []string

	// Export
	ExportBackend string
	ExportDir     string

	// Google Sheets (sheets export backend)
	GoogleSpreadsheetID string

	// AMQP chat bridge
	AMQPURL          string
	AMQPExchange     string
	AMQPInboundQueue string
	AMQPReplyQueue   string

	// Label cache
	LabelCacheSize int
	LabelCacheTTL  time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8082"),

		Timezone:    getEnv("TIMEZONE", "Asia/Jakarta"),
		UnitKeyword: getEnv("UNIT_KEYWORD", "butir"),
		GroupMode:   getEnvBool("GROUP_MODE", false),
		Groups:      splitList(getEnv("GROUPS", "")),

		ExportBackend: getEnv("EXPORT_BACKEND", "excel"),
		ExportDir:     getEnv("EXPORT_DIR", "./data/exports"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "panen"),
		AMQPInboundQueue: getEnv("AMQP_INBOUND_QUEUE", "harvest_reports"),
		AMQPReplyQueue:   getEnv("AMQP_REPLY_QUEUE", "harvest_replies"),

		LabelCacheSize: getEnvInt("LABEL_CACHE_SIZE", 512),
		LabelCacheTTL:  getEnvDuration("LABEL_CACHE_TTL", 10*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate timezone
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if strings.TrimSpace(c.UnitKeyword) == "" {
		errors = append(errors, "unit keyword cannot be empty")
	}

	// Validate export backend
	validBackends := []string{"excel", "sheets", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.ExportBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of %v", c.ExportBackend, validBackends))
	}

	if c.ExportBackend == "excel" && strings.TrimSpace(c.ExportDir) == "" {
		errors = append(errors, "export dir cannot be empty when using excel backend")
	}

	if c.ExportBackend == "sheets" && c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
	}

	// Validate group mode
	if c.GroupMode && len(c.Groups) == 0 {
		errors = append(errors, "at least one group is required when group mode is enabled")
	}

	// Validate AMQP settings if the bridge is configured
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPInboundQueue == "" {
			errors = append(errors, "AMQP inbound queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPReplyQueue == "" {
			errors = append(errors, "AMQP reply queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.LabelCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid label cache size %d: must be at least 1", c.LabelCacheSize))
	}
	if c.LabelCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid label cache TTL %v: must be at least 1 second", c.LabelCacheTTL))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location loads the configured timezone. Call Validate first.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
