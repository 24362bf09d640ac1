// Package config loads settings from an optional YAML file, a .env file and
// ZALOGA_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ZALOGA_HTTP_ADDR.
const EnvPrefix = "ZALOGA"

// Config is the full application configuration.
type Config struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Log struct {
		File string `mapstructure:"file"`
	} `mapstructure:"log"`

	Admin struct {
		Username string `mapstructure:"username"`
	} `mapstructure:"admin"`

	Storage struct {
		// Driver is "s3" or "memory".
		Driver     string        `mapstructure:"driver"`
		Bucket     string        `mapstructure:"bucket"`
		Region     string        `mapstructure:"region"`
		Endpoint   string        `mapstructure:"endpoint"`
		AccessKey  string        `mapstructure:"access_key"`
		SecretKey  string        `mapstructure:"secret_key"`
		PresignTTL time.Duration `mapstructure:"presign_ttl"`
	} `mapstructure:"storage"`

	Messaging struct {
		BaseURL      string `mapstructure:"base_url"`
		AccountSID   string `mapstructure:"account_sid"`
		AuthToken    string `mapstructure:"auth_token"`
		SMSFrom      string `mapstructure:"sms_from"`
		WhatsAppFrom string `mapstructure:"whatsapp_from"`
	} `mapstructure:"messaging"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`

	Trigger struct {
		BatchSize int           `mapstructure:"batch_size"`
		Retries   int           `mapstructure:"retries"`
		Budget    time.Duration `mapstructure:"budget"`
	} `mapstructure:"trigger"`

	Notify struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"notify"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

var defaults = map[string]any{
	"http.addr":               ":8080",
	"database.path":           "zaloga.sqlite3",
	"log.file":                "",
	"admin.username":          "Admin",
	"storage.driver":          "memory",
	"storage.bucket":          "",
	"storage.region":          "eu-central-1",
	"storage.endpoint":        "",
	"storage.access_key":      "",
	"storage.secret_key":      "",
	"storage.presign_ttl":     time.Hour,
	"messaging.base_url":      "https://api.twilio.com",
	"messaging.account_sid":   "",
	"messaging.auth_token":    "",
	"messaging.sms_from":      "",
	"messaging.whatsapp_from": "",
	"smtp.host":               "",
	"smtp.port":               587,
	"smtp.username":           "",
	"smtp.password":           "",
	"smtp.from":               "",
	"trigger.batch_size":      10,
	"trigger.retries":         2,
	"trigger.budget":          60 * time.Second,
	"notify.timeout":          30 * time.Second,
	"metrics.enabled":         true,
}

// Load reads configuration. path may be empty; envFile is loaded if it
// exists and never overrides variables already set in the environment.
func Load(path, envFile string) (Config, error) {
	var c Config

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return c, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	switch c.Storage.Driver {
	case "memory":
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required for the s3 driver"))
		}
		if (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
			errs = append(errs, errors.New("storage.access_key and storage.secret_key must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of s3, memory", c.Storage.Driver))
	}
	if c.Storage.PresignTTL <= 0 {
		errs = append(errs, errors.New("storage.presign_ttl must be positive"))
	}

	if c.MessagingEnabled() && c.Messaging.SMSFrom == "" && c.Messaging.WhatsAppFrom == "" {
		errs = append(errs, errors.New("messaging needs sms_from or whatsapp_from"))
	}
	if c.Messaging.AccountSID != "" && c.Messaging.AuthToken == "" {
		errs = append(errs, errors.New("messaging.auth_token is required with account_sid"))
	}

	if c.SMTPEnabled() {
		if c.SMTP.From == "" {
			errs = append(errs, errors.New("smtp.from is required with smtp.host"))
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			errs = append(errs, fmt.Errorf("smtp.port %d is out of range", c.SMTP.Port))
		}
	}

	if c.Trigger.BatchSize <= 0 {
		errs = append(errs, errors.New("trigger.batch_size must be positive"))
	}
	if c.Trigger.Retries < 0 {
		errs = append(errs, errors.New("trigger.retries must not be negative"))
	}
	if c.Trigger.Budget <= 0 {
		errs = append(errs, errors.New("trigger.budget must be positive"))
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, errors.New("notify.timeout must be positive"))
	}

	return errors.Join(errs...)
}

// MessagingEnabled reports whether SMS and WhatsApp credentials are present.
func (c Config) MessagingEnabled() bool {
	return c.Messaging.AccountSID != "" && c.Messaging.AuthToken != ""
}

// SMTPEnabled reports whether an SMTP relay is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}
