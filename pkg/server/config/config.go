/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config builds the configuration of the server
package config

import (
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dnote/scriptorium/pkg/dirs"
	"github.com/dnote/scriptorium/pkg/server/log"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// AppEnvTest represents an app environment for tests
	AppEnvTest string = "TEST"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "scriptorium.db"
	// DefaultAddr is the default listen address. The API is only served on
	// the loopback interface.
	DefaultAddr = "127.0.0.1:3040"
	// DefaultAlertFrom is the default sender of alert emails
	DefaultAlertFrom = "Scriptorium <noreply@localhost>"
	// DefaultDebounceDelay is the default quiet period before a setting is written
	DefaultDebounceDelay = 500 * time.Millisecond
	// DefaultSMTPPort is the submission port used when SmtpPort is unset
	DefaultSMTPPort = 587
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrAddrInvalid is an error for a listen address that is not host:port
	ErrAddrInvalid = errors.New("Invalid Addr")
	// ErrLogLevelInvalid is an error for an unknown log level
	ErrLogLevelInvalid = errors.New("Invalid LogLevel")
	// ErrAlertEmailInvalid is an error for a malformed alert recipient
	ErrAlertEmailInvalid = errors.New("Invalid AlertEmail")
	// ErrSMTPPortInvalid is an error for a non-numeric or out of range SMTP port
	ErrSMTPPortInvalid = errors.New("Invalid SmtpPort")
)

// DefaultDBPath returns the default path to the database file
func DefaultDBPath() string {
	return dirs.DataPath(DefaultDBFilename)
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// getListOrEnv returns values if non-empty, otherwise the comma separated env var
func getListOrEnv(values []string, envKey string) []string {
	if len(values) > 0 {
		return values
	}

	var ret []string
	for _, v := range strings.Split(os.Getenv(envKey), ",") {
		if v = strings.TrimSpace(v); v != "" {
			ret = append(ret, v)
		}
	}

	return ret
}

// LoadEnv loads a .env file in the working directory into the environment
// if there is one. Variables already set are kept.
func LoadEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		return errors.Wrap(err, "loading .env")
	}

	return nil
}

// SMTP is the mail server alert emails are sent through
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Configured reports whether a mail server was given
func (s SMTP) Configured() bool {
	return s.Host != ""
}

// smtpFromEnv reads the mail server from the environment
func smtpFromEnv() (SMTP, error) {
	ret := SMTP{
		Host:     os.Getenv("SmtpHost"),
		Port:     DefaultSMTPPort,
		Username: os.Getenv("SmtpUsername"),
		Password: os.Getenv("SmtpPassword"),
	}

	if v := os.Getenv("SmtpPort"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return SMTP{}, errors.Wrapf(ErrSMTPPortInvalid, "'%s'", v)
		}
		ret.Port = port
	}

	return ret, nil
}

// Config is an application configuration
type Config struct {
	AppEnv        string
	Addr          string
	DBPath        string
	LogLevel      string
	ShoutrrrURLs  []string
	AlertEmail    string
	AlertFrom     string
	SMTP          SMTP
	DebounceDelay time.Duration
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv       string
	Addr         string
	DBPath       string
	LogLevel     string
	ShoutrrrURLs []string
	AlertEmail   string
}

// New constructs and returns a new validated config.
// Empty params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	smtp, err := smtpFromEnv()
	if err != nil {
		return Config{}, err
	}

	c := Config{
		AppEnv:        getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Addr:          getOrEnv(p.Addr, "SCRIPTORIUM_ADDR", DefaultAddr),
		DBPath:        getOrEnv(p.DBPath, "SCRIPTORIUM_DB_PATH", DefaultDBPath()),
		LogLevel:      getOrEnv(p.LogLevel, "LOG_LEVEL", log.LevelInfo),
		ShoutrrrURLs:  getListOrEnv(p.ShoutrrrURLs, "SCRIPTORIUM_SHOUTRRR_URLS"),
		AlertEmail:    getOrEnv(p.AlertEmail, "SCRIPTORIUM_ALERT_EMAIL", ""),
		AlertFrom:     getOrEnv("", "SCRIPTORIUM_ALERT_FROM", DefaultAlertFrom),
		SMTP:          smtp,
		DebounceDelay: DefaultDebounceDelay,
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

func validate(c Config) error {
	if c.DBPath == "" {
		return ErrDBMissingPath
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return errors.Wrapf(ErrAddrInvalid, "'%s'", c.Addr)
	}
	if !log.ValidLevel(c.LogLevel) {
		return errors.Wrapf(ErrLogLevelInvalid, "'%s'", c.LogLevel)
	}
	if c.AlertEmail != "" {
		if _, err := mail.ParseAddress(c.AlertEmail); err != nil {
			return errors.Wrapf(ErrAlertEmailInvalid, "'%s'", c.AlertEmail)
		}
	}

	return nil
}
