package config

const (
	EnvSiteFile = "SITE_FILE"

	EnvRecognitionTimeout = "RECOGNITION_TIMEOUT"
	EnvTagScanTimeout     = "TAG_SCAN_TIMEOUT"
	EnvCarrierIdleTimeout = "CARRIER_IDLE_TIMEOUT"
	EnvEvictionThreshold  = "EVICTION_THRESHOLD"
	EnvPollInterval       = "POLL_INTERVAL"
	EnvResultHold         = "RESULT_HOLD"

	EnvDebounceWindow  = "DEBOUNCE_WINDOW"
	EnvSignalQueueSize = "SIGNAL_QUEUE_SIZE"

	EnvNotifierKind = "NOTIFIER"
	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUsername = "SMTP_USERNAME"
	EnvSMTPPassword = "SMTP_PASSWORD"
	EnvSMTPFrom     = "SMTP_FROM"

	EnvActuatorDriver  = "ACTUATOR_DRIVER"
	EnvOpenPulseWidth  = "OPEN_PULSE_WIDTH"
	EnvClosePulseWidth = "CLOSE_PULSE_WIDTH"

	EnvVisionURL     = "VISION_URL"
	EnvSnapshotURL   = "SNAPSHOT_URL"
	EnvVisionTimeout = "VISION_TIMEOUT"

	EnvMongoEnabled      = "MONGO_ENABLED"
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvMongoOpTimeout    = "MONGO_OP_TIMEOUT"

	EnvKafkaEnabled = "KAFKA_ENABLED"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
