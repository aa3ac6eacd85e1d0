package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Cognito struct {
		UserPoolID string `yaml:"user_pool_id"`
		Region     string `yaml:"region"`
		// Audiences is the allow-list of app client ids. When empty,
		// DefaultAudience is used as a single-entry list.
		Audiences       []string `yaml:"audiences"`
		DefaultAudience string   `yaml:"default_audience"`
		// JWKSURL overrides the derived discovery URL. Used in tests and
		// non-AWS deployments that publish a compatible key set.
		JWKSURL string `yaml:"jwks_url"`
	} `yaml:"cognito"`

	Auth struct {
		VerifyTimeout   time.Duration `yaml:"verify_timeout"`
		TokenCacheTTL   time.Duration `yaml:"token_cache_ttl"`
		AdminPathPrefix string        `yaml:"admin_path_prefix"`
	} `yaml:"auth"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
		RedisAddr   string `yaml:"redis_addr"`
		RedisDB     int    `yaml:"redis_db"`
	} `yaml:"rate"`

	Storage struct {
		// DSN for the platform's Postgres. Empty disables the pg identity
		// store; the caller must inject a Lookup implementation instead.
		DSN string `yaml:"dsn"`
	} `yaml:"storage"`
}

// Issuer returns the exact expected token issuer for the configured pool.
func (c *Config) Issuer() string {
	if c.Cognito.Region == "" || c.Cognito.UserPoolID == "" {
		return ""
	}
	return "https://cognito-idp." + c.Cognito.Region + ".amazonaws.com/" + c.Cognito.UserPoolID
}

// JWKSURL returns the key-set discovery URL (explicit override or derived).
func (c *Config) JWKSURL() string {
	if c.Cognito.JWKSURL != "" {
		return c.Cognito.JWKSURL
	}
	iss := c.Issuer()
	if iss == "" {
		return ""
	}
	return iss + "/.well-known/jwks.json"
}

// AudienceList returns the configured audiences, falling back to the single
// default audience when the list is empty.
func (c *Config) AudienceList() []string {
	if len(c.Cognito.Audiences) > 0 {
		return c.Cognito.Audiences
	}
	if c.Cognito.DefaultAudience != "" {
		return []string{c.Cognito.DefaultAudience}
	}
	return nil
}

// RateWindow parses the configured window, defaulting to one minute.
func (c *Config) RateWindow() time.Duration {
	d, err := time.ParseDuration(c.Rate.Window)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Load reads a YAML config file, applies defaults and environment overrides.
// A missing file is not an error: defaults plus environment apply.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Auth.VerifyTimeout == 0 {
		c.Auth.VerifyTimeout = 3 * time.Second
	}
	if c.Auth.TokenCacheTTL == 0 {
		c.Auth.TokenCacheTTL = 5 * time.Minute
	}
	if c.Auth.AdminPathPrefix == "" {
		c.Auth.AdminPathPrefix = "/admin"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 100
	}

	c.applyEnvOverrides()
	return &c, nil
}

// ---- env helpers ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides lets the environment win over config.yaml. The variable
// names match what the platform's deployment templates already export.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// COGNITO
	if v, ok := getEnvStr("COGNITO_USER_POOL_ID"); ok {
		c.Cognito.UserPoolID = v
	}
	if v, ok := getEnvStr("AWS_REGION"); ok {
		c.Cognito.Region = v
	}
	if v, ok := getEnvCSV("COGNITO_AUDIENCES"); ok && len(v) > 0 {
		c.Cognito.Audiences = v
	}
	if v, ok := getEnvStr("COGNITO_DEFAULT_AUDIENCE"); ok {
		c.Cognito.DefaultAudience = v
	}
	if v, ok := getEnvStr("COGNITO_JWKS_URL"); ok {
		c.Cognito.JWKSURL = v
	}

	// AUTH
	if v, ok := getEnvInt("VERIFY_TIMEOUT_MS"); ok && v > 0 {
		c.Auth.VerifyTimeout = time.Duration(v) * time.Millisecond
	}
	if v, ok := getEnvStr("ADMIN_PATH_PREFIX"); ok {
		c.Auth.AdminPathPrefix = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LIMIT_MAX"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.RedisAddr = v
	}

	// STORAGE
	if v, ok := getEnvStr("DATABASE_URL"); ok {
		c.Storage.DSN = v
	}
}
