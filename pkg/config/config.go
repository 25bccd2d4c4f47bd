package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"smartstorage/pkg/client"
	"smartstorage/pkg/logger"

	"github.com/spf13/pflag"
)

type Config struct {
	SiteFile string

	RecognitionTimeout time.Duration
	TagScanTimeout     time.Duration
	CarrierIdleTimeout time.Duration
	EvictionThreshold  time.Duration
	PollInterval       time.Duration
	ResultHold         time.Duration

	DebounceWindow  time.Duration
	SignalQueueSize int

	NotifierKind string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	ActuatorDriver  string
	OpenPulseWidth  int
	ClosePulseWidth int

	VisionURL     string
	SnapshotURL   string
	VisionTimeout time.Duration

	MongoEnabled      bool
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	MongoOpTimeout    time.Duration

	KafkaEnabled bool

	Port      string
	LogLevel  string
	LogFormat string

	RequestTimeout time.Duration
	MaxRequestSize int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Overrides are command-line values that take precedence over the
// environment. Empty fields are ignored.
type Overrides struct {
	SiteFile string
	LogLevel string
	Port     string
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) *Overrides {
	o := &Overrides{}
	fs.StringVar(&o.SiteFile, "site", "", "path to the site definition file (overrides "+EnvSiteFile+")")
	fs.StringVar(&o.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides "+EnvLogLevel+")")
	fs.StringVar(&o.Port, "port", "", "admin HTTP port (overrides "+EnvPort+")")
	return o
}

func Load(serviceName string, overrides *Overrides) *Config {
	cfg := FromEnv()
	cfg.apply(overrides)
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads every setting from the environment without validating.
func FromEnv() *Config {
	return &Config{
		SiteFile: getEnvStr(EnvSiteFile, DefaultSiteFile),

		RecognitionTimeout: getEnvDuration(EnvRecognitionTimeout, DefaultRecognitionTimeout),
		TagScanTimeout:     getEnvDuration(EnvTagScanTimeout, DefaultTagScanTimeout),
		CarrierIdleTimeout: getEnvDuration(EnvCarrierIdleTimeout, DefaultCarrierIdleTimeout),
		EvictionThreshold:  getEnvDuration(EnvEvictionThreshold, DefaultEvictionThreshold),
		PollInterval:       getEnvDuration(EnvPollInterval, DefaultPollInterval),
		ResultHold:         getEnvDuration(EnvResultHold, DefaultResultHold),

		DebounceWindow:  getEnvDuration(EnvDebounceWindow, DefaultDebounceWindow),
		SignalQueueSize: getEnvNum(EnvSignalQueueSize, DefaultSignalQueueSize),

		NotifierKind: getEnvStr(EnvNotifierKind, DefaultNotifierKind),
		SMTPHost:     getEnvStr(EnvSMTPHost, DefaultSMTPHost),
		SMTPPort:     getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername: getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword: getEnvStr(EnvSMTPPassword, ""),
		SMTPFrom:     getEnvStr(EnvSMTPFrom, ""),

		ActuatorDriver:  getEnvStr(EnvActuatorDriver, DefaultActuatorDriver),
		OpenPulseWidth:  getEnvNum(EnvOpenPulseWidth, DefaultOpenPulseWidth),
		ClosePulseWidth: getEnvNum(EnvClosePulseWidth, DefaultClosePulseWidth),

		VisionURL:     getEnvStr(EnvVisionURL, DefaultVisionURL),
		SnapshotURL:   getEnvStr(EnvSnapshotURL, DefaultSnapshotURL),
		VisionTimeout: getEnvDuration(EnvVisionTimeout, DefaultVisionTimeout),

		MongoEnabled:      getEnvBool(EnvMongoEnabled, DefaultMongoEnabled),
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoOpTimeout:    getEnvDuration(EnvMongoOpTimeout, DefaultMongoOpTimeout),

		KafkaEnabled: getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}
}

func (cfg *Config) apply(o *Overrides) {
	if o == nil {
		return
	}
	if o.SiteFile != "" {
		cfg.SiteFile = o.SiteFile
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.Port != "" {
		cfg.Port = o.Port
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if cfg.SiteFile == "" {
		errors = append(errors, "SiteFile cannot be empty")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"RecognitionTimeout", cfg.RecognitionTimeout},
		{"TagScanTimeout", cfg.TagScanTimeout},
		{"CarrierIdleTimeout", cfg.CarrierIdleTimeout},
		{"EvictionThreshold", cfg.EvictionThreshold},
		{"PollInterval", cfg.PollInterval},
		{"VisionTimeout", cfg.VisionTimeout},
		{"RequestTimeout", cfg.RequestTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.ResultHold < 0 {
		errors = append(errors, fmt.Sprintf("ResultHold cannot be negative, got: %s", cfg.ResultHold))
	}
	if cfg.DebounceWindow < 0 {
		errors = append(errors, fmt.Sprintf("DebounceWindow cannot be negative, got: %s", cfg.DebounceWindow))
	}
	if cfg.SignalQueueSize <= 0 {
		errors = append(errors, fmt.Sprintf("SignalQueueSize must be positive, got: %d", cfg.SignalQueueSize))
	}

	switch cfg.NotifierKind {
	case NotifierLog, NotifierKafka:
	case NotifierSMTP:
		if cfg.SMTPHost == "" {
			errors = append(errors, "SMTPHost cannot be empty when NOTIFIER=smtp")
		}
		if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
		}
		if cfg.SMTPFrom == "" {
			errors = append(errors, "SMTPFrom cannot be empty when NOTIFIER=smtp")
		}
	default:
		errors = append(errors, fmt.Sprintf("Notifier must be one of [log, smtp, kafka], got: %s", cfg.NotifierKind))
	}

	if cfg.ActuatorDriver != ActuatorLog && cfg.ActuatorDriver != ActuatorKafka {
		errors = append(errors, fmt.Sprintf("ActuatorDriver must be one of [log, kafka], got: %s", cfg.ActuatorDriver))
	}
	if cfg.OpenPulseWidth <= 0 || cfg.ClosePulseWidth <= 0 {
		errors = append(errors, fmt.Sprintf("Pulse widths must be positive, got open=%d close=%d", cfg.OpenPulseWidth, cfg.ClosePulseWidth))
	}
	if (cfg.NotifierKind == NotifierKafka || cfg.ActuatorDriver == ActuatorKafka) && !cfg.KafkaEnabled {
		errors = append(errors, "KAFKA_ENABLED must be true when a kafka notifier or actuator driver is selected")
	}

	if cfg.MongoEnabled {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
		if cfg.MongoOpTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoOpTimeout must be positive, got: %s", cfg.MongoOpTimeout))
		}
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"site_file", cfg.SiteFile,
		"recognition_timeout", cfg.RecognitionTimeout,
		"tag_scan_timeout", cfg.TagScanTimeout,
		"carrier_idle_timeout", cfg.CarrierIdleTimeout,
		"eviction_threshold", cfg.EvictionThreshold,
		"poll_interval", cfg.PollInterval,
		"result_hold", cfg.ResultHold,
		"debounce_window", cfg.DebounceWindow,
		"signal_queue_size", cfg.SignalQueueSize,
		"notifier", cfg.NotifierKind,
		"smtp_host", cfg.SMTPHost,
		"smtp_port", cfg.SMTPPort,
		"smtp_password_set", cfg.SMTPPassword != "",
		"actuator_driver", cfg.ActuatorDriver,
		"open_pulse_width", cfg.OpenPulseWidth,
		"close_pulse_width", cfg.ClosePulseWidth,
		"vision_url", cfg.VisionURL,
		"snapshot_url", cfg.SnapshotURL,
		"vision_timeout", cfg.VisionTimeout,
		"mongo_enabled", cfg.MongoEnabled,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"kafka_enabled", cfg.KafkaEnabled,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
