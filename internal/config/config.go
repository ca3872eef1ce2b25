package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Session     SessionConfig     `mapstructure:"session"`
	Checkpoint  CheckpointConfig  `mapstructure:"checkpoint"`
	Admin       AdminConfig       `mapstructure:"admin"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PersistenceConfig struct {
	// Backend selects the snapshot store: "file", "redis" or "mysql".
	Backend string      `mapstructure:"backend"`
	File    FileConfig  `mapstructure:"file"`
	Redis   RedisConfig `mapstructure:"redis"`
	MySQL   MySQLConfig `mapstructure:"mysql"`
}

type FileConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type SessionConfig struct {
	Secret string `mapstructure:"secret"`
	Name   string `mapstructure:"name"`
}

type CheckpointConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type AdminConfig struct {
	// Bootstrap credentials, used only when the snapshot carries none.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("persistence.backend", "file")
	viper.SetDefault("persistence.file.path", "data/auctions.json")
	viper.SetDefault("persistence.redis.address", "localhost:6379")
	viper.SetDefault("persistence.redis.password", "")
	viper.SetDefault("persistence.redis.db", 0)
	viper.SetDefault("persistence.redis.key", "auctionhouse:snapshot")
	viper.SetDefault("persistence.mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	viper.SetDefault("persistence.mysql.max_open_conns", 25)
	viper.SetDefault("persistence.mysql.max_idle_conns", 10)
	viper.SetDefault("persistence.mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("session.secret", "")
	viper.SetDefault("session.name", "auctionhouse-admin")
	viper.SetDefault("checkpoint.interval", 5*time.Minute)
	viper.SetDefault("admin.username", "admin")
	viper.SetDefault("admin.password", "")

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auctionhouse/")

	// Environment variable support
	viper.AutomaticEnv()

	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("persistence.backend", "PERSISTENCE_BACKEND")
	viper.BindEnv("persistence.file.path", "SNAPSHOT_PATH")
	viper.BindEnv("persistence.redis.address", "REDIS_ADDRESS")
	viper.BindEnv("persistence.redis.password", "REDIS_PASSWORD")
	viper.BindEnv("persistence.redis.db", "REDIS_DB")
	viper.BindEnv("persistence.redis.key", "REDIS_SNAPSHOT_KEY")
	viper.BindEnv("persistence.mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("persistence.mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("persistence.mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("persistence.mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("session.secret", "SESSION_SECRET")
	viper.BindEnv("session.name", "SESSION_NAME")
	viper.BindEnv("checkpoint.interval", "CHECKPOINT_INTERVAL")
	viper.BindEnv("admin.username", "ADMIN_USERNAME")
	viper.BindEnv("admin.password", "ADMIN_PASSWORD")

	// Read configuration file (optional - defaults/env vars apply if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
