package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig selects and parameterises the blob backend. Backend is either
// "local" (filesystem rooted at LocalDir) or "s3" (any S3-compatible endpoint).
type StorageConfig struct {
	Backend       string
	LocalDir      string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	Region        string
	PublicBaseURL string
}

type QueueConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

// PipelineConfig is handed explicitly to the orchestrator and worker pool;
// nothing in the pipeline reads ambient state.
type PipelineConfig struct {
	Workers                int
	JobTimeout             time.Duration
	ColorClusters          int
	MaxUploadBytes         int64
	FaceCascadePath        string
	RenderEmptyAnnotations bool
	StorageRetries         int
	StorageRetryBackoff    time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Queue            QueueConfig
	Pipeline         PipelineConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("PEEK")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "30s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localdir", "uploads")
	v.SetDefault("storage.bucket", "peek-images")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "auto")

	v.SetDefault("queue.stream", "peek:analyze")
	v.SetDefault("queue.group", "peek-workers")
	v.SetDefault("queue.consumer", "worker-1")
	v.SetDefault("queue.claiminterval", "30s")

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.jobtimeout", "2m")
	v.SetDefault("pipeline.colorclusters", 5)
	v.SetDefault("pipeline.maxuploadbytes", 16*1024*1024)
	v.SetDefault("pipeline.facecascadepath", "models/facefinder")
	v.SetDefault("pipeline.renderemptyannotations", false)
	v.SetDefault("pipeline.storageretries", 3)
	v.SetDefault("pipeline.storageretrybackoff", "200ms")
}
