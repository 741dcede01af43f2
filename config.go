package nsgifts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Config.ApplyEnv.
const (
	EnvBaseURL             = "NSGIFTS_BASE_URL"
	EnvLogin               = "NSGIFTS_LOGIN"
	EnvPassword            = "NSGIFTS_PASSWORD"
	EnvUserAgent           = "NSGIFTS_USER_AGENT"
	EnvTimeout             = "NSGIFTS_TIMEOUT"
	EnvMaxAttempts         = "NSGIFTS_MAX_ATTEMPTS"
	EnvBaseDelay           = "NSGIFTS_BASE_DELAY"
	EnvMaxDelay            = "NSGIFTS_MAX_DELAY"
	EnvJitter              = "NSGIFTS_JITTER"
	EnvTokenSafetyMargin   = "NSGIFTS_TOKEN_SAFETY_MARGIN"
	EnvServerErrorCooldown = "NSGIFTS_SERVER_ERROR_COOLDOWN"
)

// Config is the file and environment form of the client options.
// Zero values keep the client defaults. Durations use Go syntax ("30s", "5m").
//
//	base_url: https://api.ns.gifts
//	login: shop@example.com
//	password: secret
//	request_timeout: 30s
//	max_attempts: 3
//	base_delay: 1s
//	max_delay: 30s
//	jitter: 0.2
//	token_safety_margin: 5m
//	server_error_cooldown: 5m
type Config struct {
	BaseURL             string        `yaml:"base_url"`
	Login               string        `yaml:"login"`
	Password            string        `yaml:"password"`
	UserAgent           string        `yaml:"user_agent"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
	MaxAttempts         int           `yaml:"max_attempts"`
	BaseDelay           time.Duration `yaml:"base_delay"`
	MaxDelay            time.Duration `yaml:"max_delay"`
	Jitter              *float64      `yaml:"jitter"`
	TokenSafetyMargin   time.Duration `yaml:"token_safety_margin"`
	ServerErrorCooldown time.Duration `yaml:"server_error_cooldown"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML config document.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from NSGIFTS_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, v, err)
		}
		*dst = d
		return nil
	}

	str(EnvBaseURL, &c.BaseURL)
	str(EnvLogin, &c.Login)
	str(EnvPassword, &c.Password)
	str(EnvUserAgent, &c.UserAgent)

	if v, ok := os.LookupEnv(EnvMaxAttempts); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvMaxAttempts, v, err)
		}
		c.MaxAttempts = n
	}

	if v, ok := os.LookupEnv(EnvJitter); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvJitter, v, err)
		}
		c.Jitter = &f
	}

	for key, dst := range map[string]*time.Duration{
		EnvTimeout:             &c.RequestTimeout,
		EnvBaseDelay:           &c.BaseDelay,
		EnvMaxDelay:            &c.MaxDelay,
		EnvTokenSafetyMargin:   &c.TokenSafetyMargin,
		EnvServerErrorCooldown: &c.ServerErrorCooldown,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) apply(cc *clientConfig) {
	if c.BaseURL != "" {
		cc.baseURL = c.BaseURL
	}
	if c.Login != "" || c.Password != "" {
		WithCredentials(c.Login, c.Password)(cc)
	}
	if c.UserAgent != "" {
		cc.userAgent = c.UserAgent
	}
	if c.RequestTimeout != 0 {
		cc.timeout = c.RequestTimeout
	}
	if c.MaxAttempts != 0 {
		cc.maxAttempts = c.MaxAttempts
	}
	if c.BaseDelay != 0 {
		cc.baseDelay = c.BaseDelay
	}
	if c.MaxDelay != 0 {
		cc.maxDelay = c.MaxDelay
	}
	if c.Jitter != nil {
		cc.jitter = *c.Jitter
	}
	if c.TokenSafetyMargin != 0 {
		cc.safetyMargin = c.TokenSafetyMargin
	}
	if c.ServerErrorCooldown != 0 {
		cc.serverErrorCooldown = c.ServerErrorCooldown
	}
}

// validate rejects settings the engine cannot run with.
func (cc *clientConfig) validate() error {
	switch {
	case cc.baseURL == "":
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	case cc.maxAttempts < 1:
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidConfig, cc.maxAttempts)
	case cc.baseDelay < 0 || cc.maxDelay < 0:
		return fmt.Errorf("%w: backoff delays must not be negative", ErrInvalidConfig)
	case cc.jitter < 0 || cc.jitter > 1:
		return fmt.Errorf("%w: jitter must be within [0, 1], got %v", ErrInvalidConfig, cc.jitter)
	case cc.timeout < 0:
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
