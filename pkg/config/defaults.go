package config

import "time"

const (
	DefaultSiteFile = "site.yaml"

	DefaultRecognitionTimeout = 60 * time.Second
	DefaultTagScanTimeout     = 60 * time.Second
	DefaultCarrierIdleTimeout = 30 * time.Second
	DefaultEvictionThreshold  = 50 * time.Second
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultResultHold         = 2 * time.Second

	DefaultDebounceWindow  = 300 * time.Millisecond
	DefaultSignalQueueSize = 16

	NotifierLog   = "log"
	NotifierSMTP  = "smtp"
	NotifierKafka = "kafka"

	DefaultNotifierKind = NotifierLog
	DefaultSMTPHost     = "smtp.gmail.com"
	DefaultSMTPPort     = 587

	ActuatorLog   = "log"
	ActuatorKafka = "kafka"

	DefaultActuatorDriver  = ActuatorLog
	DefaultOpenPulseWidth  = 500
	DefaultClosePulseWidth = 1500

	DefaultVisionURL     = "http://localhost:8500"
	DefaultSnapshotURL   = "http://localhost:8080/snapshot.jpg"
	DefaultVisionTimeout = 5 * time.Second

	DefaultMongoEnabled      = false
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "smartstorage"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoOpTimeout    = 5 * time.Second

	DefaultKafkaEnabled = false

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxRequestSize = 64 * 1024 // 64KB

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = time.Minute

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
