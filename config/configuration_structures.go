package config

import "time"

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DB_DRIVER"`
	DSN             string        `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME"`
}

// RedisConfig : empty Addr disables the bearer token cache
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type JWTConfig struct {
	SecretKey        string        `yaml:"secret_key" env:"JWT_SECRET"`
	RefreshSecretKey string        `yaml:"refresh_secret_key" env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL"`
}

type CookieConfig struct {
	HTTPOnly bool   `yaml:"http_only" env:"COOKIE_HTTP_ONLY"`
	Secure   bool   `yaml:"secure" env:"COOKIE_SECURE"`
	SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE"`
}

// IdentityConfig : access to the external source of map access records
type IdentityConfig struct {
	ClientID         string        `yaml:"client_id" env:"IDENTITY_CLIENT_ID"`
	ClientSecret     string        `yaml:"client_secret" env:"IDENTITY_CLIENT_SECRET"`
	RefreshToken     string        `yaml:"refresh_token" env:"IDENTITY_REFRESH_TOKEN"`
	AccountsURL      string        `yaml:"accounts_url" env:"IDENTITY_ACCOUNTS_URL"`
	APIDomain        string        `yaml:"api_domain" env:"IDENTITY_API_DOMAIN"`
	Module           string        `yaml:"module" env:"IDENTITY_MODULE"`
	Timeout          time.Duration `yaml:"timeout" env:"IDENTITY_TIMEOUT"`
	BreakerThreshold uint32        `yaml:"breaker_threshold" env:"IDENTITY_BREAKER_THRESHOLD"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" env:"IDENTITY_BREAKER_TIMEOUT"`
}

type SyncConfig struct {
	Interval       time.Duration `yaml:"interval" env:"CODE_SYNC_INTERVAL"`
	BootstrapDelay time.Duration `yaml:"bootstrap_delay" env:"CODE_SYNC_BOOTSTRAP_DELAY"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}
