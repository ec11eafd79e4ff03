package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	// Storage
	StorageDriver string
	StorageDir    string
	DatabaseURL   string

	// Auth
	APIToken string

	// APIURL is where the CLI finds a running server.
	APIURL string

	// Push Notifications
	APNsKeyID       string
	APNsTeamID      string
	APNsPrivateKey  string
	APNsBundleID    string
	APNsDeviceToken string
	FCMProjectID    string
	FCMPrivateKey   string
	FCMDeviceToken  string

	// Slack
	SlackWebhookURL string

	// SMS
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	AlertSMSTo       string

	// Cron
	DigestSchedule string
	RescanSchedule string

	// Server
	Port        string
	Environment string
	LogLevel    string
	Timezone    string
	CORSOrigins []string
}

func Load() *Config {
	return &Config{
		// Storage
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageFile)),
		StorageDir:    getEnv("STORAGE_DIR", defaultStorageDir()),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		// Auth
		APIToken: getEnv("API_TOKEN", ""),
		APIURL:   getEnv("REMIND_API_URL", ""),

		// Push Notifications
		APNsKeyID:       getEnv("APNS_KEY_ID", ""),
		APNsTeamID:      getEnv("APNS_TEAM_ID", ""),
		APNsPrivateKey:  getEnv("APNS_PRIVATE_KEY", ""),
		APNsBundleID:    getEnv("APNS_BUNDLE_ID", "com.remindme.app"),
		APNsDeviceToken: getEnv("APNS_DEVICE_TOKEN", ""),
		FCMProjectID:    getEnv("FCM_PROJECT_ID", ""),
		FCMPrivateKey:   getEnv("FCM_PRIVATE_KEY", ""),
		FCMDeviceToken:  getEnv("FCM_DEVICE_TOKEN", ""),

		// Slack
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		// SMS
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		AlertSMSTo:       getEnv("ALERT_SMS_TO", ""),

		// Cron
		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 8 * * *"),
		RescanSchedule: getEnv("RESCAN_SCHEDULE", "@every 1m"),

		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Timezone:    getEnv("TIMEZONE", "Local"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://localhost:8080")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func defaultStorageDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "remind-me"
	}
	return ".remind-me"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ServerURL is REMIND_API_URL, or the local server on PORT.
func (c *Config) ServerURL() string {
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return "http://localhost:" + c.Port
}

// Location resolves TIMEZONE, which decides where "today" starts.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageFile:
		if c.StorageDir == "" {
			return fmt.Errorf("STORAGE_DIR is required for the file storage driver")
		}
	case StoragePostgres, StorageSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s storage driver", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) APNsEnabled() bool {
	return c.APNsKeyID != "" && c.APNsTeamID != "" && c.APNsPrivateKey != "" && c.APNsDeviceToken != ""
}

func (c *Config) FCMEnabled() bool {
	return c.FCMProjectID != "" && c.FCMPrivateKey != "" && c.FCMDeviceToken != ""
}

func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != "" && c.AlertSMSTo != ""
}
