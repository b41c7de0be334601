package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nandanugg/courier-tracking/config"
	"github.com/nandanugg/courier-tracking/module/tracking"
	"github.com/nandanugg/courier-tracking/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.New(logger.Options{})
		fallback.Fatal().Err(err).Msg("config")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "courier-tracking",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := config.NewPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := config.Migrate(ctx, db); err != nil {
		return err
	}

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg, log)
	if err != nil {
		return err
	}
	defer mqttClient.Disconnect(250)

	redisClient, err := config.NewRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	} else {
		log.Info().Msg("REDIS_ADDR not set, route caching disabled")
	}

	if cfg.Routing.LocationIQKey == "" {
		log.Warn().Msg("LOCATIONIQ_API_KEY not set, primary routing will fail over to OSRM")
	}

	trackingModule, err := tracking.Build(db, amqpConn, mqttClient, redisClient, &http.Client{}, tracking.Options{
		TopicTemplate:     cfg.MQTT.TopicTemplate,
		QoS:               byte(cfg.MQTT.QoS),
		LocationIQBaseURL: cfg.Routing.LocationIQBaseURL,
		LocationIQKey:     cfg.Routing.LocationIQKey,
		OSRMBaseURL:       cfg.Routing.OSRMBaseURL,
		AttemptTimeout:    cfg.Routing.AttemptTimeout,
		RouteCacheTTL:     cfg.Redis.RouteTTL,
	}, log)
	if err != nil {
		return err
	}
	defer trackingModule.Shutdown()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	health := config.NewHealthChecker(db, amqpConn, mqttClient, redisClient)
	health.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	trackingModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
