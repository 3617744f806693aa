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

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines the reader tooling configuration schema.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Metrics MetricsConfig `yaml:"metrics"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

// SourceConfig locates the build log: either a local file path or an S3
// bucket/key pair.
type SourceConfig struct {
	Path            string `yaml:"path"`
	Bucket          string `yaml:"bucket"`
	Key             string `yaml:"key"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Charset         string `yaml:"charset"`
	BuildStart      string `yaml:"build_start"`
	CacheBytes      int    `yaml:"cache_bytes"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load reads and validates a yaml config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the source selects exactly one backend and that
// optional fields parse.
func (c Config) Validate() error {
	hasFile := c.Source.Path != ""
	hasS3 := c.Source.Bucket != "" || c.Source.Key != ""
	if hasFile == hasS3 {
		return fmt.Errorf("source requires either path or bucket+key")
	}
	if hasS3 && (c.Source.Bucket == "" || c.Source.Key == "") {
		return fmt.Errorf("s3 source requires both bucket and key")
	}
	if c.Source.BuildStart != "" {
		if _, err := time.Parse(time.RFC3339, c.Source.BuildStart); err != nil {
			return fmt.Errorf("parse build_start: %w", err)
		}
	}
	return nil
}

// BuildStartTime returns the configured build start, or the zero time.
func (c Config) BuildStartTime() time.Time {
	if c.Source.BuildStart == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, c.Source.BuildStart)
	if err != nil {
		return time.Time{}
	}
	return t
}
