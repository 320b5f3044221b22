package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/flagx"
	"github.com/dmitrijs2005/pennyplan/internal/timex"
)

// JsonConfig is the DTO for the JSON configuration file. Durations accept
// both strings such as "5s" and integer nanoseconds. Only keys present in
// the file override the current configuration.
type JsonConfig struct {
	HTTPAddr  string `json:"http_addr"`
	APIPrefix string `json:"api_prefix"`

	StoreDriver   string `json:"store_driver"`
	DatabaseDSN   string `json:"database_dsn"`
	MongoURI      string `json:"mongo_url"`
	MongoDatabase string `json:"mongo_database"`

	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	PasswordHasher        string         `json:"password_hasher"`
	BcryptCost            int            `json:"bcrypt_cost"`

	GoogleClientID       string         `json:"google_client_id"`
	GoogleClientSecret   string         `json:"google_client_secret"`
	GoogleRedirectURL    string         `json:"google_redirect_url"`
	GoogleJWKSURL        string         `json:"google_jwks_url"`
	GoogleVerifyTimeout  timex.Duration `json:"google_verify_timeout"`
	RequireVerifiedEmail *bool          `json:"require_verified_email"`
	FrontendURL          string         `json:"frontend_url"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	MailFrom     string `json:"mail_from"`

	NotificationQueueSize int            `json:"notification_queue_size"`
	NotificationWorkers   int            `json:"notification_workers"`
	NotificationTimeout   timex.Duration `json:"notification_timeout"`

	RequestTimeout  timex.Duration `json:"request_timeout"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`

	LogLevel     string `json:"log_level"`
	OTelEndpoint string `json:"otel_endpoint"`
}

// parseJson overlays the JSON file named by -c/-config (or CONFIG) onto
// config. No file configured means no changes.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.APIPrefix, c.APIPrefix)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenValidityDuration, c.TokenValidityDuration)
	setString(&config.PasswordHasher, c.PasswordHasher)
	setInt(&config.BcryptCost, c.BcryptCost)
	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)
	setString(&config.GoogleRedirectURL, c.GoogleRedirectURL)
	setString(&config.GoogleJWKSURL, c.GoogleJWKSURL)
	setDuration(&config.GoogleVerifyTimeout, c.GoogleVerifyTimeout)
	if c.RequireVerifiedEmail != nil {
		config.RequireVerifiedEmail = *c.RequireVerifiedEmail
	}
	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setInt(&config.NotificationQueueSize, c.NotificationQueueSize)
	setInt(&config.NotificationWorkers, c.NotificationWorkers)
	setDuration(&config.NotificationTimeout, c.NotificationTimeout)
	setDuration(&config.RequestTimeout, c.RequestTimeout)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.OTelEndpoint, c.OTelEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.IsSet() {
		*dst = v.Duration
	}
}
