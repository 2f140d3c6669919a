package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConf struct {
	Env            string `mapstructure:"env"`
	Port           int    `mapstructure:"port"`
	ShutdownSecond int    `mapstructure:"shutdown_seconds"`
}

type MongoConf struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConf struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConf struct {
	Brokers      []string `mapstructure:"brokers"`
	TopicCreated string   `mapstructure:"topic_created"`
	TopicSeen    string   `mapstructure:"topic_seen"`
}

type StorageConf struct {
	Backend   string `mapstructure:"backend"` // "local" or "s3"
	UploadDir string `mapstructure:"upload_dir"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
}

type JWTConf struct {
	Secret     string `mapstructure:"secret"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

type WSConf struct {
	PingSeconds    int `mapstructure:"ping_seconds"`
	WriteSeconds   int `mapstructure:"write_seconds"`
	MaxMessageSize int `mapstructure:"max_message_size"`
	InboundRPS     int `mapstructure:"inbound_rps"`
}

type ClientConf struct {
	PollSeconds int `mapstructure:"poll_seconds"`
}

type RateLimitConf struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type Config struct {
	App       AppConf       `mapstructure:"app"`
	Mongo     MongoConf     `mapstructure:"mongodb"`
	Redis     RedisConf     `mapstructure:"redis"`
	Kafka     KafkaConf     `mapstructure:"kafka"`
	Storage   StorageConf   `mapstructure:"storage"`
	JWT       JWTConf       `mapstructure:"jwt"`
	WS        WSConf        `mapstructure:"ws"`
	Client    ClientConf    `mapstructure:"client"`
	RateLimit RateLimitConf `mapstructure:"ratelimit"`
	Log       struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived
	ShutdownTimeout time.Duration
	PingInterval    time.Duration
	WriteDeadline   time.Duration
	PollInterval    time.Duration
	RateWindow      time.Duration
	TokenTTL        time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 5001
	}
	if cfg.App.ShutdownSecond == 0 {
		cfg.App.ShutdownSecond = 15
	}
	if cfg.Kafka.TopicCreated == "" {
		cfg.Kafka.TopicCreated = "chat.message.created"
	}
	if cfg.Kafka.TopicSeen == "" {
		cfg.Kafka.TopicSeen = "chat.message.seen"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.WS.PingSeconds == 0 {
		cfg.WS.PingSeconds = 30
	}
	if cfg.WS.WriteSeconds == 0 {
		cfg.WS.WriteSeconds = 10
	}
	if cfg.WS.MaxMessageSize == 0 {
		cfg.WS.MaxMessageSize = 64 * 1024
	}
	if cfg.WS.InboundRPS == 0 {
		cfg.WS.InboundRPS = 20
	}
	if cfg.Client.PollSeconds == 0 {
		cfg.Client.PollSeconds = 30
	}
	if cfg.RateLimit.Limit == 0 {
		cfg.RateLimit.Limit = 120
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.JWT.TTLMinutes == 0 {
		cfg.JWT.TTLMinutes = 24 * 60
	}
	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSecond) * time.Second
	cfg.PingInterval = time.Duration(cfg.WS.PingSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.WS.WriteSeconds) * time.Second
	cfg.PollInterval = time.Duration(cfg.Client.PollSeconds) * time.Second
	cfg.RateWindow = time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	cfg.TokenTTL = time.Duration(cfg.JWT.TTLMinutes) * time.Minute
	return &cfg, nil
}
