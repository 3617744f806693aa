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

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/text/encoding"

	"github.com/novatechflow/buildlog/pkg/cache"
)

// OpHook observes storage operations for metrics. op names the operation,
// err is nil on success.
type OpHook func(op string, d time.Duration, err error)

type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3RecordConfig describes the location of a build log in AWS S3 or a
// compatible object store.
type S3RecordConfig struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Charset         encoding.Encoding
	StartTime       time.Time
}

// S3Record serves a build log stored as a single S3 object. Reads go through
// the optional object cache so independent passes do not re-fetch.
type S3Record struct {
	bucket  string
	key     string
	api     s3API
	cache   *cache.ObjectCache
	charset encoding.Encoding
	start   time.Time
	onOp    OpHook
}

// NewS3Record constructs an AWS-backed record.
func NewS3Record(ctx context.Context, cfg S3RecordConfig, objCache *cache.ObjectCache, onOp OpHook) (*S3Record, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	if cfg.Key == "" {
		return nil, errors.New("s3 key required")
	}

	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	if cfg.Endpoint != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					PartitionID:   "aws",
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(customResolver))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return newS3RecordWithAPI(cfg, client, objCache, onOp), nil
}

func newS3RecordWithAPI(cfg S3RecordConfig, api s3API, objCache *cache.ObjectCache, onOp OpHook) *S3Record {
	return &S3Record{
		bucket:  cfg.Bucket,
		key:     cfg.Key,
		api:     api,
		cache:   objCache,
		charset: cfg.Charset,
		start:   cfg.StartTime,
		onOp:    onOp,
	}
}

func (r *S3Record) Exists(ctx context.Context) (bool, error) {
	start := time.Now()
	_, err := r.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if r.onOp != nil {
		r.onOp("head_object", time.Since(start), err)
	}
	if err == nil {
		return true, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return false, nil
		}
	}
	return false, fmt.Errorf("head object %s/%s: %w", r.bucket, r.key, err)
}

func (r *S3Record) Open(ctx context.Context) (io.ReadCloser, error) {
	if r.cache != nil {
		if data, ok := r.cache.Get(r.bucket, r.key); ok {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}
	start := time.Now()
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if r.onOp != nil {
		r.onOp("get_object", time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", r.bucket, r.key, err)
	}
	if r.cache == nil {
		return out.Body, nil
	}
	data, err := io.ReadAll(out.Body)
	closeErr := out.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", r.bucket, r.key, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close object %s/%s: %w", r.bucket, r.key, closeErr)
	}
	r.cache.Set(r.bucket, r.key, data)
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *S3Record) Charset() encoding.Encoding { return r.charset }

func (r *S3Record) StartTime() time.Time { return r.start }
