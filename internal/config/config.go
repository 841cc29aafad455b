package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Schema     SchemaConfig     `mapstructure:"schema"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Lock       LockConfig       `mapstructure:"lock"`
	Providers  []ProviderConfig `mapstructure:"providers"`
	SignUp     SignUpConfig     `mapstructure:"signup"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host                    string        `mapstructure:"host"`
	Port                    int           `mapstructure:"port"`
	Mode                    string        `mapstructure:"mode"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string         `mapstructure:"driver"` // "postgres" | "mysql" | "sqlite"
	Postgres        PostgresConfig `mapstructure:"postgres"`
	MySQL           MySQLConfig    `mapstructure:"mysql"`
	SQLite          SQLiteConfig   `mapstructure:"sqlite"`
	MaxIdleConns    int            `mapstructure:"max_idle_conns"`
	MaxOpenConns    int            `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration  `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool           `mapstructure:"auto_migrate"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       string `mapstructure:"db"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       string `mapstructure:"db"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// SchemaConfig overrides the connection table layout. Empty names keep the
// defaults.
type SchemaConfig struct {
	Table          string `mapstructure:"table"`
	UserID         string `mapstructure:"user_id"`
	ProviderID     string `mapstructure:"provider_id"`
	ProviderUserID string `mapstructure:"provider_user_id"`
	Rank           string `mapstructure:"rank"`
	DisplayName    string `mapstructure:"display_name"`
	ProfileURL     string `mapstructure:"profile_url"`
	ImageURL       string `mapstructure:"image_url"`
	AccessToken    string `mapstructure:"access_token"`
	Secret         string `mapstructure:"secret"`
	RefreshToken   string `mapstructure:"refresh_token"`
	ExpireTime     string `mapstructure:"expire_time"`
}

type EncryptionConfig struct {
	Algorithm  string `mapstructure:"algorithm"` // "aes-gcm" | "xchacha20poly1305" | "none"
	Key        string `mapstructure:"key"`       // hex, 32 bytes
	Passphrase string `mapstructure:"passphrase"`
	Salt       string `mapstructure:"salt"` // from `connhub salt`
}

type LockConfig struct {
	Backend string        `mapstructure:"backend"` // "memory" | "redis" | "none"
	TTL     time.Duration `mapstructure:"ttl"`
}

type ProviderConfig struct {
	ID      string `mapstructure:"id"`
	APIType string `mapstructure:"api_type"`
}

type SignUpConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type JWTConfig struct {
	SigningKey     string        `mapstructure:"signing_key"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type AdminConfig struct {
	UserIDs []string `mapstructure:"user_ids"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.graceful_shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.sqlite.path", "connhub.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("encryption.algorithm", "aes-gcm")
	v.SetDefault("lock.backend", "memory")
	v.SetDefault("lock.ttl", 10*time.Second)

	v.SetDefault("jwt.issuer", "connhub")
	v.SetDefault("jwt.access_token_ttl", 15*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads config.yaml, overlays environment variables, and returns Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	// Environment variable override: DATABASE_DRIVER -> database.driver
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
