package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Ticket    TicketConfig    `mapstructure:"ticket"`
	Storage   StorageConfig   `mapstructure:"storage"`
	OTP       OTPConfig       `mapstructure:"otp"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
	AppHost   string          `mapstructure:"host"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Source string `mapstructure:"source"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	CookieName    string        `mapstructure:"cookie_name"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// TicketConfig signs the short-lived tokens used to open websocket connections.
type TicketConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	Driver string   `mapstructure:"driver"`
	Path   string   `mapstructure:"path"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type OTPConfig struct {
	Provider string       `mapstructure:"provider"`
	Stytch   StytchConfig `mapstructure:"stytch"`
}

type StytchConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Secret    string `mapstructure:"secret"`
	BaseURL   string `mapstructure:"base_url"`
}

type OAuthConfig struct {
	Google OAuthClientConfig `mapstructure:"google"`
}

type OAuthClientConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

func (c OAuthClientConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var (
	ErrMissingDBSource     = errors.New("config: db.source is required")
	ErrMissingTicketSecret = errors.New("config: ticket.secret is required")
	ErrUnknownStorage      = errors.New("config: storage.driver must be local or s3")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("host", "http://localhost:8080")
	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.secure_cookie", true)
	v.SetDefault("session.purge_interval", time.Hour)
	v.SetDefault("ticket.ttl", time.Minute)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.path", "./data/images")
	v.SetDefault("otp.provider", "log")
	v.SetDefault("otp.stytch.base_url", "https://test.stytch.com")
	v.SetDefault("ratelimit.requests", 120)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
}

func Load() (*Config, error) {
	return load(viper.New(), "./configs", "/configs")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{
		"db.source", "redis.addr", "redis.password", "ticket.secret",
		"storage.s3.bucket", "storage.s3.region", "storage.s3.endpoint",
		"storage.s3.access_key", "storage.s3.secret_key",
		"otp.stytch.project_id", "otp.stytch.secret",
		"oauth.google.client_id", "oauth.google.client_secret", "oauth.google.redirect_url",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Source == "" {
		return ErrMissingDBSource
	}
	if c.Ticket.Secret == "" {
		return ErrMissingTicketSecret
	}
	if c.Storage.Driver != "local" && c.Storage.Driver != "s3" {
		return ErrUnknownStorage
	}
	return nil
}
