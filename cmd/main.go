// @title           gluco_watch API
// @version         1.0
// @description     Read-only status API for the glucose polling loop.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "gluco_watch/docs"
	"gluco_watch/internal/config"
	"gluco_watch/internal/diagnostics"
	"gluco_watch/internal/easyview"
	"gluco_watch/internal/handlers"
	"gluco_watch/internal/logger"
	"gluco_watch/internal/metrics"
	"gluco_watch/internal/models"
	"gluco_watch/internal/repository"
	"gluco_watch/internal/repository/db"
	"gluco_watch/internal/server"
	"gluco_watch/internal/service"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout    = 10 * time.Second
	connectTimeout     = 10 * time.Second
	setupMaxElapsed    = 2 * time.Minute
	setupInitialRetry  = 2 * time.Second
	setupMaxRetryDelay = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Errorw("error loading config", "err", err)
		os.Exit(1)
	}
	log := logger.Configure(cfg.LogLevel, cfg.LogFormat)

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DBPath, "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos := repository.NewRepository(database)
	sinks, closeSinks := buildSinks(ctx, cfg, repos, log)
	defer closeSinks()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observers := buildObservers(ctx, cfg, repos, reg, log)

	poller := service.NewPoller(pollerConfig(cfg), clientFactory(cfg), sinks, log, observers...)

	srv := startHTTPServer(cfg, repos, poller, reg, log)

	if err := setupWithRetry(ctx, poller, log); err != nil {
		// Run keeps retrying on its own schedule.
		log.Errorw("initial session setup failed", "err", err)
	}

	log.Infow("poller started",
		"loop_interval", cfg.Poll.LoopInterval,
		"error_retry", cfg.Poll.ErrorRetry,
		"window_hours", cfg.Poll.WindowHours,
		"sinks", len(sinks),
	)
	poller.Run(ctx)

	log.Infow("shutting down...")
	shutdownHTTPServer(srv, log)
}

func pollerConfig(cfg *config.Config) service.PollerConfig {
	return service.PollerConfig{
		TZOffsetHours:        cfg.Poll.TZOffsetHours,
		WindowHours:          cfg.Poll.WindowHours,
		LoopInterval:         cfg.Poll.LoopInterval,
		ErrorRetry:           cfg.Poll.ErrorRetry,
		MaxConsecutiveErrors: cfg.Poll.MaxConsecutiveErrors,
		IncludeRaw:           cfg.Poll.IncludeRaw,
		SinkTimeout:          cfg.Poll.SinkTimeout,
	}
}

func clientFactory(cfg *config.Config) service.ClientFactory {
	return func() (service.SessionClient, error) {
		return easyview.New(easyview.Config{
			BaseURL: cfg.EasyView.BaseURL,
			Credentials: models.Credentials{
				Username: cfg.EasyView.Username,
				Password: cfg.EasyView.Password,
				UserType: cfg.EasyView.UserType,
			},
			MonitorUID: cfg.EasyView.MonitorUID,
			Timeout:    cfg.EasyView.Timeout,
		})
	}
}

// buildSinks always stores the document locally and adds every configured remote sink.
// A remote sink that cannot connect is skipped with an error log.
func buildSinks(ctx context.Context, cfg *config.Config, repos *repository.Repository, log *logger.Logger) ([]repository.Sink, func()) {
	sinks := []repository.Sink{repository.NewDocumentSink(repos.Documents)}
	var closers []func()

	if cfg.Redis.Addr != "" {
		s := repository.NewKeyPathSink(repository.RedisOpts{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  connectTimeout,
		})
		sinks = append(sinks, s)
		closers = append(closers, func() { _ = s.Close() })
		log.Infow("sink enabled", "sink", s.Name(), "addr", cfg.Redis.Addr)
	}
	if cfg.Influx.URL != "" {
		s := repository.NewSeriesSink(repository.InfluxOpts{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		})
		sinks = append(sinks, s)
		closers = append(closers, s.Close)
		log.Infow("sink enabled", "sink", s.Name(), "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}
	if cfg.MQTT.BrokerURL != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		s, err := repository.NewMQTTSink(cctx, repository.MQTTOpts{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			QoS:       1,
		})
		cancel()
		if err != nil {
			log.Errorw("mqtt sink disabled", "broker", cfg.MQTT.BrokerURL, "err", err)
		} else {
			sinks = append(sinks, s)
			closers = append(closers, s.Close)
			log.Infow("sink enabled", "sink", s.Name(), "broker", cfg.MQTT.BrokerURL)
		}
	}
	if len(cfg.Kafka.Brokers) > 0 {
		s := repository.NewKafkaSink(repository.KafkaOpts{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		sinks = append(sinks, s)
		closers = append(closers, func() { _ = s.Close() })
		log.Infow("sink enabled", "sink", s.Name(), "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

func buildObservers(ctx context.Context, cfg *config.Config, repos *repository.Repository, reg prometheus.Registerer, log *logger.Logger) []service.TickObserver {
	observers := []service.TickObserver{
		service.NewTickLog(repos.TickEvents),
		metrics.New(reg),
	}
	if cfg.DiagDir != "" {
		observers = append(observers, diagnostics.NewFileDumper(cfg.DiagDir, log))
	}
	if cfg.MinIO.Endpoint != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		d, err := diagnostics.NewArchiveDumper(cctx, diagnostics.MinIOOpts{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseTLS:    cfg.MinIO.UseTLS,
		}, log)
		if err != nil {
			log.Errorw("raw archive disabled", "endpoint", cfg.MinIO.Endpoint, "err", err)
		} else {
			observers = append(observers, d)
		}
	}
	return observers
}

// setupWithRetry logs in with exponential backoff until it succeeds, ctx ends or setupMaxElapsed passes.
func setupWithRetry(ctx context.Context, poller *service.Poller, log *logger.Logger) error {
	b := backoff.WithContext(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(setupInitialRetry),
			backoff.WithMaxInterval(setupMaxRetryDelay),
			backoff.WithMaxElapsedTime(setupMaxElapsed),
		),
		ctx,
	)
	return backoff.RetryNotify(func() error {
		return poller.Setup(ctx)
	}, b, func(err error, d time.Duration) {
		log.Infow("session setup failed, retrying", "err", err, "next_attempt_in", d)
	})
}

func startHTTPServer(cfg *config.Config, repos *repository.Repository, poller *service.Poller, reg *prometheus.Registry, log *logger.Logger) *server.Server {
	if cfg.HTTP.Port == "" {
		return nil
	}
	services := service.NewService(repos, poller, service.AuthConfig{
		Username:     cfg.HTTP.APIUsername,
		PasswordHash: cfg.HTTP.APIPasswordHash,
		SigningKey:   cfg.HTTP.APISigningKey,
	})
	apiHandler := handlers.NewHandler(services, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log)

	srv := &server.Server{}
	go func() {
		if err := srv.Run(cfg.HTTP.Port, apiHandler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "port", cfg.HTTP.Port, "err", err)
		}
	}()
	log.Infow("status api listening", "port", cfg.HTTP.Port)
	return srv
}

func shutdownHTTPServer(srv *server.Server, log *logger.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
