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

// logship reads a build log once, front to back, and produces each decoded
// line to a Kafka topic. The line's annotation timestamp, when present,
// becomes the record timestamp.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/novatechflow/buildlog/internal/config"
	"github.com/novatechflow/buildlog/pkg/cache"
	"github.com/novatechflow/buildlog/pkg/logreader"
	"github.com/novatechflow/buildlog/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "yaml config file with source and kafka sections")
	flag.Parse()

	logger := newLogger("logship")
	if *configPath == "" {
		logger.Error("missing -config")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "" {
		logger.Error("config requires kafka.brokers and kafka.topic")
		os.Exit(1)
	}

	record, err := buildRecord(ctx, cfg)
	if err != nil {
		logger.Error("init log record", "error", err)
		os.Exit(1)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Kafka.Brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.DefaultProduceTopic(cfg.Kafka.Topic),
	)
	if err != nil {
		logger.Error("init kafka client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	reader := logreader.New(record, nil)
	defer reader.Close()

	shipped := 0
	for {
		line, err := reader.NextLine(ctx)
		if err != nil {
			logger.Error("read line", "error", err)
			os.Exit(1)
		}
		if line == nil {
			break
		}
		rec := &kgo.Record{Value: []byte(line.Text)}
		if line.Timestamp != nil {
			rec.Timestamp = line.Timestamp.Time()
		}
		if err := client.ProduceSync(ctx, rec).FirstErr(); err != nil {
			logger.Error("produce line", "error", err)
			os.Exit(1)
		}
		shipped++
	}
	if err := client.Flush(ctx); err != nil {
		logger.Error("flush producer", "error", err)
		os.Exit(1)
	}
	logger.Info("log shipped", "topic", cfg.Kafka.Topic, "lines", shipped)
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
	}, cache.NewObjectCache(cacheBytes), nil)
}

func newLogger(component string) *slog.Logger {
	level := slog.LevelInfo
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
