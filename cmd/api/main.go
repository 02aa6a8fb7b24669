package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/ntak-rms/internal/app"
	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/config"
	"github.com/noah-isme/ntak-rms/internal/events"
	"github.com/noah-isme/ntak-rms/internal/health"
	"github.com/noah-isme/ntak-rms/internal/obs"
	"github.com/noah-isme/ntak-rms/internal/order"
	"github.com/noah-isme/ntak-rms/internal/ratelimit"
	"github.com/noah-isme/ntak-rms/internal/security"
	"github.com/noah-isme/ntak-rms/internal/submission"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsEnabled := cfg.Obs.MetricsEnabled
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), tracingConfig(cfg, "ntak-api"))
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	deps, err := app.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()
	if metricsEnabled {
		app.InstrumentMetrics(deps.Redis, logger)
	}

	limiter, err := ratelimit.NewRedisLimiter(deps.Redis, "ntak:ratelimit")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	rateLimit := ratelimit.Handler{
		Limiter: limiter,
		Rule:    ratelimit.PerClientIP("v1", cfg.RateLimitPerMinute),
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate_limit_unavailable") },
	}

	catalogHandler := &catalog.Handler{}
	previewHandler := &order.Handler{Builder: deps.Builder, Validator: deps.Validator}
	submissionHandler := &submission.Handler{Service: deps.Submissions, Validator: deps.Validator}
	eventsHandler := events.Handler{Reader: deps.Events}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.Obs.MetricsBucketsMS)
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, Skip: []string{"/healthz", "/readyz", "/metrics"}}.Middleware)
	var hsts time.Duration
	if cfg.AppEnv == "production" {
		hsts = 365 * 24 * time.Hour
	}
	r.Use(security.Headers{Enable: true, HSTS: hsts, TrustForwardedProto: cfg.Obs.TrustForwardProto}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{deps: deps},
		Breaker:      deps.Breaker,
		RedisTimeout: cfg.Obs.ReadyRedisTimeout,
	}
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/v1", func(v chi.Router) {
		v.Route("/catalog", func(c chi.Router) {
			c.Get("/categories", catalogHandler.Categories)
			c.Get("/categories/{category}/subcategories", catalogHandler.SubCategories)
			c.Get("/codes", catalogHandler.Codes)
		})

		v.Group(func(g chi.Router) {
			g.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
			g.Use(rateLimit.Middleware)
			g.Post("/orders/preview", previewHandler.Preview)
			g.Post("/orders", submissionHandler.SubmitOrder)
			g.Post("/days/close", submissionHandler.CloseDay)
			g.Get("/submissions/{processingId}", submissionHandler.Status)
			g.Get("/events", eventsHandler.Recent)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Str("ntak", cfg.NTAKBaseURL).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	deps *app.Dependencies
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.deps == nil || c.deps.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.deps.Redis.Ping(ctx).Err()
}

func tracingConfig(cfg *config.Config, service string) obs.TracingConfig {
	return obs.TracingConfig{
		ServiceName:       service,
		ServiceVersion:    cfg.NTAKSoftwareVersion,
		Endpoint:          cfg.Obs.OTLPEndpoint,
		Exporter:          cfg.Obs.TracingExporter,
		SamplingRatio:     cfg.Obs.TracingSampling,
		Environment:       cfg.AppEnv,
		SoftwareRegNumber: cfg.NTAKSoftwareRegNumber,
	}
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
