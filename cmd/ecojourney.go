package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/internal/aggregate"
	"github.com/superdango/ecojourney/internal/api"
	"github.com/superdango/ecojourney/internal/cache"
	"github.com/superdango/ecojourney/internal/climatiq"
	"github.com/superdango/ecojourney/internal/demo"
	"github.com/superdango/ecojourney/internal/narrate"
	"github.com/superdango/ecojourney/internal/report"
	"github.com/superdango/ecojourney/internal/resolver"
	"github.com/superdango/ecojourney/internal/store"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])

		flag.PrintDefaults()

		fmt.Fprint(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprint(os.Stderr, "  CLIMATIQ_API_KEY\n")
		fmt.Fprint(os.Stderr, "        climatiq api key, emissions are estimated locally when empty\n")
	}

	flagListen := ""
	flagClimatiqURL := ""
	flagClimatiqTimeout := time.Duration(0)
	flagClimatiqDataVersion := ""
	flagClimatiqFallbackRegion := ""
	flagCacheTTL := time.Duration(0)
	flagAggregateConcurrency := 0
	flagStoreBackend := ""
	flagStoreGCSBucket := ""
	flagStoreGCSCredentials := ""
	flagStoreS3Bucket := ""
	flagStoreS3Region := ""
	flagStoreS3RoleArn := ""
	flagLogLevel := ""
	flagLogFormat := ""
	flagDemoEnabled := false

	flag.StringVar(&flagListen, "listen", "0.0.0.0:2922", "addr to listen to")
	flag.StringVar(&flagClimatiqURL, "climatiq.url", climatiq.DefaultBaseURL, "climatiq api base url")
	flag.DurationVar(&flagClimatiqTimeout, "climatiq.timeout", climatiq.DefaultTimeout, "timeout of a single estimation request")
	flag.StringVar(&flagClimatiqDataVersion, "climatiq.dataversion", climatiq.DefaultDataVersion, "climatiq data version")
	flag.StringVar(&flagClimatiqFallbackRegion, "climatiq.fallbackregion", "Global", "region retried when the activity region has no emission factor")
	flag.DurationVar(&flagCacheTTL, "cache.ttl", time.Hour, "how long remote estimations are reused (0 disables the cache)")
	flag.IntVar(&flagAggregateConcurrency, "aggregate.concurrency", aggregate.DefaultConcurrency, "activities resolved at once")
	flag.StringVar(&flagStoreBackend, "store.backend", "memory", "report storage (memory, gcs, s3)")
	flag.StringVar(&flagStoreGCSBucket, "store.gcs.bucket", "", "gcs bucket storing reports")
	flag.StringVar(&flagStoreGCSCredentials, "store.gcs.credentials", "", "gcs service account key file (default credentials when empty)")
	flag.StringVar(&flagStoreS3Bucket, "store.s3.bucket", "", "s3 bucket storing reports")
	flag.StringVar(&flagStoreS3Region, "store.s3.region", "us-east-1", "s3 bucket region")
	flag.StringVar(&flagStoreS3RoleArn, "store.s3.rolearn", "", "aws role arn to assume for report storage")
	flag.StringVar(&flagLogLevel, "log.level", "info", "log severity (debug, info, warn, error)")
	flag.StringVar(&flagLogFormat, "log.format", "text", "log format (text, json)")
	flag.BoolVar(&flagDemoEnabled, "demo.enabled", false, "seed a week of reports for the demo user")

	flag.Parse()

	initLogging(flagLogLevel, flagLogFormat)

	s, err := setupStore(ctx, map[string]string{
		"store.backend":         flagStoreBackend,
		"store.gcs.bucket":      flagStoreGCSBucket,
		"store.gcs.credentials": flagStoreGCSCredentials,
		"store.s3.bucket":       flagStoreS3Bucket,
		"store.s3.region":       flagStoreS3Region,
		"store.s3.rolearn":      flagStoreS3RoleArn,
	})
	if err != nil {
		slog.Error("failed to setup report storage", "store.backend", flagStoreBackend, "err", err)
		flag.PrintDefaults()
		os.Exit(1)
	}
	defer s.Close()

	client := climatiq.NewClient(
		climatiq.WithBaseURL(flagClimatiqURL),
		climatiq.WithAPIKey(os.Getenv("CLIMATIQ_API_KEY")),
		climatiq.WithTimeout(flagClimatiqTimeout),
		climatiq.WithDataVersion(flagClimatiqDataVersion),
	)

	resolverOpts := []resolver.Option{resolver.WithFallbackRegion(flagClimatiqFallbackRegion)}
	if flagCacheTTL > 0 {
		resolverOpts = append(resolverOpts, resolver.WithCache(cache.NewMemory[climatiq.Estimate](ctx, flagCacheTTL), flagCacheTTL))
	}
	r := resolver.New(client, resolverOpts...)

	assembler := report.New(
		aggregate.New(r, aggregate.WithConcurrency(flagAggregateConcurrency)),
		report.WithStore(s),
		report.WithNarrator(narrate.New()),
	)

	if flagDemoEnabled {
		if err := demo.Seed(ctx, assembler, time.Now(), 7); err != nil {
			slog.Error("failed to seed demo reports", "err", err)
			os.Exit(1)
		}
	}

	mux := http.NewServeMux()
	api.NewHandler(assembler, s).RegisterRoutes(mux)
	mux.Handle("GET /metrics", ecojourney.NewHTTPMetricsHandler(client, r, assembler))

	server := &http.Server{
		Addr:              flagListen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown server", "err", err)
		}
	}()

	slog.Info("starting ecojourney", "listen", flagListen, "remote_estimation", client.Authenticated(), "store.backend", flagStoreBackend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start ecojourney", "err", err)
		os.Exit(1)
	}
}

func setupStore(ctx context.Context, params map[string]string) (*store.Store, error) {
	switch params["store.backend"] {
	case "memory", "":
		return store.NewMemory(), nil
	case "gcs":
		if params["store.gcs.bucket"] == "" {
			return nil, fmt.Errorf("store.gcs.bucket is not set")
		}
		objects, err := store.NewGCSObjects(ctx, params["store.gcs.bucket"], params["store.gcs.credentials"])
		if err != nil {
			return nil, err
		}
		return store.New(objects), nil
	case "s3":
		if params["store.s3.bucket"] == "" {
			return nil, fmt.Errorf("store.s3.bucket is not set")
		}
		objects, err := store.NewS3Objects(ctx, params["store.s3.bucket"],
			store.WithS3Region(params["store.s3.region"]),
			store.WithS3RoleArn(params["store.s3.rolearn"]),
		)
		if err != nil {
			return nil, err
		}
		return store.New(objects), nil
	}

	return nil, fmt.Errorf("store backend %q is not supported", params["store.backend"])
}

func initLogging(logLevel string, logFormat string) {
	switch logFormat {
	case "text":
		slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:   slogLevel(logLevel),
			NoColor: !isatty.IsTerminal(os.Stdout.Fd()),
		})))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slogLevel(logLevel),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				switch a.Key {
				case slog.LevelKey:
					a.Key = "severity"
					return a
				case slog.MessageKey:
					a.Key = "message"
					return a
				default:
					return a
				}
			},
		})))
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}
