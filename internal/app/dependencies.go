package app

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ntak-rms/internal/config"
	"github.com/noah-isme/ntak-rms/internal/events"
	"github.com/noah-isme/ntak-rms/internal/lock"
	"github.com/noah-isme/ntak-rms/internal/ntak"
	"github.com/noah-isme/ntak-rms/internal/order"
	"github.com/noah-isme/ntak-rms/internal/queue"
	"github.com/noah-isme/ntak-rms/internal/resilience"
	"github.com/noah-isme/ntak-rms/internal/submission"
)

// Dependencies enumerates the services shared by the API and the worker.
type Dependencies struct {
	Config       *config.Config
	Logger       zerolog.Logger
	Redis        *redis.Client
	Validator    *validator.Validate
	RedisConnOpt asynq.RedisConnOpt
	TaskClient   *asynq.Client
	Breaker      *resilience.Breaker
	NTAK         *ntak.Client
	Builder      order.Builder
	Events       events.RedisStreamStore
	Submissions  *submission.Service
}

// New connects to Redis, loads the signing material and builds the
// submission service. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	rdb, err := NewRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		return nil, err
	}
	signer, err := ntak.LoadSigner(cfg.NTAKKeyPath, cfg.NTAKCertPath)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	connOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("parse redis uri for queue: %w", err)
	}

	d := &Dependencies{
		Config:       cfg,
		Logger:       logger,
		Redis:        rdb,
		Validator:    validator.New(validator.WithRequiredStructEnabled()),
		RedisConnOpt: connOpt,
		TaskClient:   asynq.NewClient(connOpt),
		Builder: order.Builder{
			DepositUnitPrice: cfg.DepositUnitPrice,
			DepositVAT:       cfg.DepositVAT,
		},
		Events: events.RedisStreamStore{Client: rdb},
	}
	d.Breaker = resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRatio, cfg.CircuitOpenFor).
		WithTarget("ntak").
		WithLogger(logger)
	httpClient := resilience.HTTPClient{
		Client:      ntak.NewHTTPClient(cfg.NTAKRequestTimeout),
		Breaker:     d.Breaker,
		BaseBackoff: cfg.RetryBase,
		MaxAttempts: cfg.RetryMaxAttempts,
		Jitter:      cfg.RetryJitter,
		Timeout:     cfg.NTAKRequestTimeout,
		Target:      "ntak",
		Logger:      &d.Logger,
	}
	d.NTAK = ntak.NewClient(cfg.NTAKBaseURL, ntak.Identity{
		TaxNumber:         cfg.NTAKTaxNumber,
		RegNumber:         cfg.NTAKRegNumber,
		SoftwareRegNumber: cfg.NTAKSoftwareRegNumber,
		SoftwareVersion:   cfg.NTAKSoftwareVersion,
	}, signer, httpClient)

	d.Submissions = &submission.Service{
		Builder: d.Builder,
		NTAK:    d.NTAK,
		Queue:   queue.Enqueuer{Client: d.TaskClient, MaxRetry: cfg.QueueMaxRetry},
		Locker:  lock.Locker{R: rdb, RetryBackoff: cfg.LockRetryBackoff},
		Replay:  submission.RedisReplayGuard{Client: rdb},
		Events: &events.Bus{
			Store:     d.Events,
			Notifiers: []events.Notifier{events.MetricsNotifier{}},
		},
		Config: submission.Config{
			ReplayTTL:         cfg.SubmissionReplayTTL,
			LockTTL:           cfg.LockTTL,
			VerifyDelay:       cfg.VerifyDelay,
			MaxVerifyAttempts: cfg.VerifyMaxAttempts,
		},
		Logger: logger.With().Str("component", "submission").Logger(),
	}
	return d, nil
}

// Close releases the queue client and the Redis connection.
func (d *Dependencies) Close() error {
	var errs []error
	if d.TaskClient != nil {
		errs = append(errs, d.TaskClient.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}

// NewRedis connects to url with tracing enabled and checks the connection.
func NewRedis(ctx context.Context, url string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// InstrumentMetrics exports Redis client metrics through OpenTelemetry.
func InstrumentMetrics(client *redis.Client, logger zerolog.Logger) {
	if err := redisotel.InstrumentMetrics(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
}
