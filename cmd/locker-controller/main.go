package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"smartstorage/internal/actuator"
	"smartstorage/internal/api"
	"smartstorage/internal/audit"
	"smartstorage/internal/directory"
	"smartstorage/internal/lockers/eviction"
	"smartstorage/internal/lockers/registry"
	"smartstorage/internal/lockers/repository"
	"smartstorage/internal/notify"
	"smartstorage/internal/presenter"
	"smartstorage/internal/router"
	"smartstorage/internal/session"
	"smartstorage/internal/site"
	"smartstorage/internal/vision"
	"smartstorage/pkg/app"
	"smartstorage/pkg/clock"
	"smartstorage/pkg/config"
	"smartstorage/pkg/kafka"
	kafka_config "smartstorage/pkg/kafka/config"
	kafka_middleware "smartstorage/pkg/kafka/middleware"
	"smartstorage/pkg/logger"
	"smartstorage/pkg/metrics"
	"smartstorage/pkg/model"
)

const ServiceName = "locker-controller"

const restoreTimeout = 30 * time.Second

func main() {
	fs := pflag.NewFlagSet(ServiceName, pflag.ExitOnError)
	overrides := config.BindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg := config.Load(ServiceName, overrides)
	if err := run(cfg); err != nil {
		cfg.Log.Error("Locker controller stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	metrics.Register()

	// Cancelled with a cause when a session hits a configuration error or a
	// quit/shutdown button is pressed.
	ctx, stop := context.WithCancelCause(context.Background())
	defer stop(nil)

	if cfg.MongoEnabled {
		cfg.SetMongo()
	}
	defer cfg.GracefulShutdown()

	s, err := site.Load(cfg.SiteFile)
	if err != nil {
		return err
	}
	reg, dir, writer, err := initLockers(ctx, cfg, s)
	if err != nil {
		return err
	}

	kafkaCfg, err := initKafka(cfg)
	if err != nil {
		return err
	}
	var closers []closer
	defer func() { closeAll(cfg.Log, closers) }()

	board := presenter.NewBoard(nil)
	display := presenter.Multi(presenter.NewLog(cfg.Log), board)
	sess := initSession(cfg, kafkaCfg, s, reg, dir, display, &closers, stop)
	signals := router.New(sess, router.Config{
		DebounceWindow: cfg.DebounceWindow,
		QueueSize:      cfg.SignalQueueSize,
	}, cfg.Log)
	signals.OnHalt(display, router.HaltFunc(stop))

	var history api.SessionHistory
	if cfg.MongoEnabled {
		history = audit.NewMongoSessionRepository(cfg)
	}

	application := app.NewApplication()
	application.SetApp(cfg,
		api.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		api.NewControllerHandler(api.Deps{
			Lockers: reg,
			Session: sess,
			Board:   board,
			Signals: signals,
			History: history,
			Log:     cfg.Log,
		}),
	)
	application.AddRunner("router", signals)
	if writer != nil {
		application.AddRunner("locker-writer", writer)
	}
	if kafkaCfg != nil {
		consumer := initSignalConsumer(cfg, kafkaCfg, signals)
		closers = append(closers, consumer)
		application.AddWorker(app.Worker{Name: "signal-consumer", Run: consumer.Start})
	}

	runErr := application.Run(ctx)

	if sess.Abort() {
		cfg.Log.Info("Aborted active session on shutdown")
	}
	waitCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := sess.Wait(waitCtx); err != nil {
		cfg.Log.Warn("Session still running at shutdown", "error", err)
	}
	if writer != nil {
		writer.Flush(waitCtx)
	}

	cause := context.Cause(ctx)
	if errors.Is(cause, router.ErrStopRequested) {
		cfg.Log.Info("Controller stopped from the locker bank", "reason", cause)
		return runErr
	}
	if cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return runErr
}

// initLockers loads the site definition and builds the directory and the
// registry, restoring persisted occupancy when MongoDB is enabled. The
// writer is nil when persistence is disabled.
func initLockers(ctx context.Context, cfg *config.Config, s *site.Site) (*registry.Registry, *directory.Directory, *repository.Writer, error) {
	dir, err := directory.New(s.Users)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("user directory: %w", err)
	}

	reg, err := registry.New(s.Seed(time.Now()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("locker definition: %w", err)
	}

	var writer *repository.Writer
	if cfg.MongoEnabled {
		repo := repository.NewMongoLockerRepository(cfg)
		restoreCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
		defer cancel()
		if err := repository.Restore(restoreCtx, repo, reg, cfg.Log); err != nil {
			return nil, nil, nil, fmt.Errorf("restore locker state: %w", err)
		}
		writer = repository.NewWriter(repo, cfg.Log)
		reg.OnChange(writer.Observe)
	}

	reg.OnChange(func(model.Locker) {
		metrics.SetLockersOccupied(countOccupied(reg.Snapshot()))
	})
	metrics.SetLockersOccupied(countOccupied(reg.Snapshot()))

	cfg.Log.Info("Site loaded", "site", s.Name, "lockers", reg.Len(), "users", dir.Len())
	return reg, dir, writer, nil
}

func countOccupied(lockers []model.Locker) int {
	n := 0
	for _, l := range lockers {
		if l.Occupied() {
			n++
		}
	}
	return n
}

type closer interface {
	Close() error
}

func closeAll(log *logger.Logger, closers []closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil && !errors.Is(err, kafka.ErrProducerClosed) && !errors.Is(err, kafka.ErrConsumerClosed) {
			log.Error("Failed to close Kafka client", "error", err)
		}
	}
}

// initKafka returns nil when Kafka is disabled.
func initKafka(cfg *config.Config) (*kafka_config.Config, error) {
	if !cfg.KafkaEnabled {
		return nil, nil
	}
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, err
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)
	return kafkaCfg, nil
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, topic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}
	return producer
}

func initSignalConsumer(cfg *config.Config, kafkaCfg *kafka_config.Config, signals *router.Router) *kafka.Consumer {
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.Log, kafkaCfg.SignalsTopic, signals.HandleMessage)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "topic", kafkaCfg.SignalsTopic, "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	}
	return consumer
}

func initSession(
	cfg *config.Config,
	kafkaCfg *kafka_config.Config,
	s *site.Site,
	reg *registry.Registry,
	dir *directory.Directory,
	display presenter.Presenter,
	closers *[]closer,
	onFatal context.CancelCauseFunc,
) *session.Session {
	var driver actuator.Driver = actuator.NewLogDriver(cfg.Log)
	if cfg.ActuatorDriver == config.ActuatorKafka {
		producer := newProducer(cfg, kafkaCfg, kafkaCfg.ActuatorTopic)
		*closers = append(*closers, producer)
		driver = actuator.NewKafkaDriver(producer, ServiceName)
	}
	act := actuator.New(actuator.Config{
		Channels:        s.Channels(),
		OpenPulseWidth:  cfg.OpenPulseWidth,
		ClosePulseWidth: cfg.ClosePulseWidth,
	}, driver)

	var sender notify.Sender
	switch cfg.NotifierKind {
	case config.NotifierSMTP:
		sender = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	case config.NotifierKafka:
		producer := newProducer(cfg, kafkaCfg, kafkaCfg.NotificationsTopic)
		*closers = append(*closers, producer)
		sender = notify.NewKafkaNotifier(producer, ServiceName)
	default:
		sender = notify.NewLogNotifier(cfg.Log)
	}

	var auditLog session.AuditLog = audit.NewLogRecorder(cfg.Log)
	if cfg.MongoEnabled {
		auditLog = audit.NewMongoSessionRepository(cfg)
	}

	sidecar := vision.NewSidecar(cfg.VisionURL, cfg.VisionTimeout)
	sess, err := session.New(session.Config{
		RecognitionTimeout: cfg.RecognitionTimeout,
		TagScanTimeout:     cfg.TagScanTimeout,
		CarrierIdleTimeout: cfg.CarrierIdleTimeout,
		PollInterval:       cfg.PollInterval,
		ResultHold:         cfg.ResultHold,
	}, session.Deps{
		Registry:   reg,
		Directory:  dir,
		Policy:     eviction.New(cfg.EvictionThreshold),
		Camera:     vision.NewCamera(cfg.SnapshotURL, cfg.VisionTimeout),
		Recognizer: sidecar,
		Scanner:    sidecar,
		Actuator:   act,
		Notifier:   notify.Instrument(sender),
		Presenter:  display,
		Audit:      auditLog,
		Clock:      clock.Real(),
		Log:        cfg.Log,
		OnFatal: func(err error) {
			cfg.Log.Error("Configuration error, stopping controller", "error", err)
			onFatal(err)
		},
	})
	if err != nil {
		cfg.Log.Fatal("Failed to build session", "error", err)
	}
	return sess
}
