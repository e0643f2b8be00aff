package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServerAddr     string         `yaml:"serverAddr" env:"SERV_ADDRS"`
	DatabaseConfig DatabaseConfig `yaml:"databaseConfig"`
	RedisConfig    RedisConfig    `yaml:"redisConfig"`
	JWT            JWTConfig      `yaml:"jwt"`
	Cookie         CookieConfig   `yaml:"cookie"`
	Identity       IdentityConfig `yaml:"identity"`
	Sync           SyncConfig     `yaml:"sync"`
	Log            LogConfig      `yaml:"log"`
}

// DefaultConfig : values used when neither the file nor the environment set a field
func DefaultConfig() *AppConfig {
	return &AppConfig{
		ServerAddr: "0.0.0.0:20090",
		DatabaseConfig: DatabaseConfig{
			Driver:          "postgres",
			MaxOpenConns:    15,
			MaxIdleConns:    5,
			ConnMaxLifetime: 15 * time.Minute,
			ConnMaxIdleTime: 2 * time.Minute,
		},
		JWT: JWTConfig{
			AccessTokenTTL:  4 * time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Cookie: CookieConfig{
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Lax",
		},
		Identity: IdentityConfig{
			AccountsURL:      "https://accounts.zoho.com",
			Module:           "Acceso_a_Mapas",
			Timeout:          15 * time.Second,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		Sync: SyncConfig{
			Interval:       30 * time.Minute,
			BootstrapDelay: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig : defaults, then the YAML file (if it exists), then environment variables.
// The result is validated and must not be modified afterwards.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) Validate() error {
	var errs []error

	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("jwt secret_key is required"))
	}
	if c.JWT.RefreshSecretKey == "" {
		errs = append(errs, errors.New("jwt refresh_secret_key is required"))
	}
	if c.JWT.SecretKey != "" && c.JWT.SecretKey == c.JWT.RefreshSecretKey {
		errs = append(errs, errors.New("jwt access and refresh secrets must differ"))
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("jwt token ttl must be positive"))
	} else if c.JWT.AccessTokenTTL >= c.JWT.RefreshTokenTTL {
		errs = append(errs, errors.New("access_token_ttl must be shorter than refresh_token_ttl"))
	}
	if mode, err := ParseSameSite(c.Cookie.SameSite); err != nil {
		errs = append(errs, err)
	} else if mode == http.SameSiteNoneMode && !c.Cookie.Secure {
		errs = append(errs, errors.New("cookie same_site None requires secure cookies"))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, errors.New("sync interval must be positive"))
	}
	if c.Sync.BootstrapDelay < 0 {
		errs = append(errs, errors.New("sync bootstrap_delay must not be negative"))
	}
	switch c.DatabaseConfig.Driver {
	case "postgres":
		if c.DatabaseConfig.DSN == "" {
			errs = append(errs, errors.New("database dsn is required for postgres driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.DatabaseConfig.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParseSameSite : Strict, Lax or None, case-insensitive
func ParseSameSite(value string) (http.SameSite, error) {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("cookie same_site must be Strict, Lax or None, got %q", value)
	}
}

func (c CookieConfig) SameSiteMode() http.SameSite {
	mode, err := ParseSameSite(c.SameSite)
	if err != nil {
		return http.SameSiteLaxMode
	}
	return mode
}

func SetupServer(serverAddress string) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server, router
}

func SetupDatabase(cfg *DatabaseConfig) (*Database, error) {
	return NewDatabaseConnection("postgres", cfg)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
