// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// logcat decodes a build log to stdout, stripping inline annotations and
// optionally prefixing each line with its recorded timestamp.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novatechflow/buildlog/internal/config"
	"github.com/novatechflow/buildlog/internal/metrics"
	"github.com/novatechflow/buildlog/pkg/cache"
	"github.com/novatechflow/buildlog/pkg/logreader"
	"github.com/novatechflow/buildlog/pkg/storage"
)

func main() {
	var (
		configPath  = flag.String("config", "", "yaml config file; overrides the source flags")
		filePath    = flag.String("file", "", "local build log file")
		bucket      = flag.String("bucket", "", "s3 bucket holding the build log")
		key         = flag.String("key", "", "s3 object key of the build log")
		region      = flag.String("region", "", "s3 region")
		endpoint    = flag.String("endpoint", "", "s3-compatible endpoint override")
		pathStyle   = flag.Bool("path-style", false, "use path-style s3 addressing")
		charset     = flag.String("charset", "", "log charset (IANA name, default utf-8)")
		buildStart  = flag.String("build-start", "", "build start time, RFC3339, for relative timestamps")
		count       = flag.Bool("count", false, "print the line count and exit")
		showTime    = flag.Bool("timestamps", false, "prefix lines with their recorded timestamp")
		metricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address")
	)
	flag.Parse()

	logger := newLogger("logcat")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveConfig(*configPath, config.SourceConfig{
		Path:            *filePath,
		Bucket:          *bucket,
		Key:             *key,
		Region:          *region,
		Endpoint:        *endpoint,
		PathStyle:       *pathStyle,
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Charset:         *charset,
		BuildStart:      *buildStart,
	})
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	if *metricsAddr != "" {
		startMetricsServer(ctx, *metricsAddr, logger)
	}

	record, err := buildRecord(ctx, cfg)
	if err != nil {
		logger.Error("init log record", "error", err)
		os.Exit(1)
	}

	reader := logreader.New(record, func(outcome string) {
		metrics.AnnotationsTotal.WithLabelValues(outcome).Inc()
	})
	defer reader.Close()

	if *count {
		total, err := reader.LineCount(ctx)
		if err != nil {
			logger.Error("count lines", "error", err)
			os.Exit(1)
		}
		fmt.Println(total)
		return
	}

	for {
		line, err := reader.NextLine(ctx)
		if err != nil {
			logger.Error("read line", "error", err)
			os.Exit(1)
		}
		if line == nil {
			return
		}
		metrics.LinesTotal.Inc()
		if *showTime && line.Timestamp != nil {
			fmt.Printf("%s  %s\n", line.Timestamp.Time().UTC().Format(time.RFC3339), line.Text)
		} else {
			fmt.Println(line.Text)
		}
	}
}

// resolveConfig loads the yaml config when a path is given, otherwise builds
// one from the flag values.
func resolveConfig(path string, flags config.SourceConfig) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Config{Source: flags}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func buildRecord(ctx context.Context, cfg config.Config) (storage.LogRecord, error) {
	charset, err := storage.LookupCharset(cfg.Source.Charset)
	if err != nil {
		return nil, err
	}
	start := cfg.BuildStartTime()

	if cfg.Source.Path != "" {
		return storage.NewFileRecord(cfg.Source.Path, charset, start), nil
	}

	cacheBytes := cfg.Source.CacheBytes
	if cacheBytes <= 0 {
		cacheBytes = 64 << 20
	}
	onOp := func(op string, d time.Duration, err error) {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.StorageOps.WithLabelValues(op, result).Inc()
		metrics.StorageOpDuration.WithLabelValues(op).Observe(float64(d.Milliseconds()))
	}
	return storage.NewS3Record(ctx, storage.S3RecordConfig{
		Bucket:          cfg.Source.Bucket,
		Key:             cfg.Source.Key,
		Region:          cfg.Source.Region,
		Endpoint:        cfg.Source.Endpoint,
		ForcePathStyle:  cfg.Source.PathStyle,
		AccessKeyID:     cfg.Source.AccessKeyID,
		SecretAccessKey: cfg.Source.SecretAccessKey,
		Charset:         charset,
		StartTime:       start,
	}, cache.NewObjectCache(cacheBytes), onOp)
}

func startMetricsServer(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
}

func newLogger(component string) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("BUILDLOG_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With("component", component)
}
