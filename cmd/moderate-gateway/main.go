// Command moderate-gateway wires the Rule Store, the moderation engine,
// and the audit/metrics sinks together and runs a background refresh
// loop against Postgres. It exercises the engine end to end on startup
// with a single sample invocation; wiring this into an RPC or HTTP
// transport is out of scope (the moderation contract Non-goals).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sentineldev/modgate/internal/audit"
	"github.com/sentineldev/modgate/internal/engine"
	"github.com/sentineldev/modgate/internal/engine/detectors"
	"github.com/sentineldev/modgate/internal/metrics"
	"github.com/sentineldev/modgate/internal/rulestore"
)

func main() {
	_ = godotenv.Load()

	logger := mustBuildLogger(envOrDefault("LOG_LEVEL", "info"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", envOrDefault("DATABASE_URL", "postgres://localhost:5432/modgate?sslmode=disable"))
	if err != nil {
		logger.Fatal("open postgres pool", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(envOrDefaultInt("DB_MAX_OPEN_CONNS", 10))
	db.SetMaxIdleConns(envOrDefaultInt("DB_MAX_IDLE_CONNS", 5))
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Fatal("ping postgres", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	go serveMetrics(ctx, logger, reg, envOrDefault("METRICS_ADDR", ":9090"))

	store := rulestore.NewStore(db)
	refreshInterval := time.Duration(envOrDefaultInt("RULE_CACHE_REFRESH_MS", 800)) * time.Millisecond
	cache := rulestore.NewCache(store.ListActiveRules, refreshInterval, rec, logger)
	go cache.Run(ctx)

	auditSink := mustBuildAuditSink(logger, rec)
	defer auditSink.Close()

	eng := engine.New(
		cache,
		buildDetectors(logger),
		time.Duration(envOrDefaultInt("RULE_TIMEOUT_MS", 100))*time.Millisecond,
		auditSink,
		rec,
		logger,
	)

	logger.Info("moderate-gateway started",
		zap.String("rule_cache_refresh", refreshInterval.String()),
	)

	runSample(ctx, eng, logger)

	<-ctx.Done()
	logger.Info("shutting down")
}

// buildDetectors maps every RuleKind the Rule Store can hand back to
// the detector that evaluates it. A remote toxicity scorer is used when
// TOXICITY_MODEL_ENDPOINT is set; otherwise the deterministic lexicon
// scorer keeps the demo runnable with no external dependency.
func buildDetectors(logger *zap.Logger) map[engine.RuleKind]engine.Detector {
	var scorer detectors.Scorer
	if endpoint := os.Getenv("TOXICITY_MODEL_ENDPOINT"); endpoint != "" {
		scorer = detectors.NewRemoteScorer(endpoint, &http.Client{Timeout: 2 * time.Second})
	} else {
		scorer = detectors.NewLexiconScorer()
	}

	return map[engine.RuleKind]engine.Detector{
		engine.KindPII:       detectors.NewPII(),
		engine.KindKeyword:   detectors.NewKeyword(),
		engine.KindRegex:     detectors.NewRegex(),
		engine.KindFinancial: detectors.NewFinancial(),
		engine.KindMedical:   detectors.NewMedical(),
		engine.KindToxicity:  detectors.NewToxicity(scorer, logger),
	}
}

// mustBuildAuditSink prefers ClickHouse when CLICKHOUSE_DSN is set,
// falling back to the log-based sink for local development.
func mustBuildAuditSink(logger *zap.Logger, drops audit.DropRecorder) audit.Sink {
	dsn := os.Getenv("CLICKHOUSE_DSN")
	if dsn == "" {
		logger.Info("CLICKHOUSE_DSN unset, using log audit sink")
		return audit.NewLogSink(logger)
	}

	sink, err := audit.NewClickHouseSink(dsn, drops, logger)
	if err != nil {
		logger.Error("connect clickhouse audit sink, falling back to log sink", zap.Error(err))
		return audit.NewLogSink(logger)
	}
	return sink
}

func serveMetrics(ctx context.Context, logger *zap.Logger, reg *prometheus.Registry, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

// runSample exercises Moderate once at startup so the wiring is proven
// before the process settles into steady state. The demo response
// contains an email address; it is blocked only if an active PII rule
// for the GLOBAL region is in the cache by the time the call runs.
func runSample(ctx context.Context, eng *engine.Engine, logger *zap.Logger) {
	result, err := eng.Moderate(ctx, "what's your contact email?", "sure, reach me at demo@example.com", engine.RegionGlobal, "startup-sample")
	if err != nil {
		logger.Error("sample moderation call failed", zap.Error(err))
		return
	}
	logger.Info("sample moderation result",
		zap.String("request_id", result.RequestID),
		zap.Bool("is_blocked", result.IsBlocked),
		zap.Bool("is_flagged", result.IsFlagged),
	)
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
