// Package archive copies run artifacts to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"afdp/internal/config"
	"afdp/internal/logger"
)

const contentTypeJSON = "application/json"

// PutObjectAPI is the slice of the S3 client used by the uploader.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader puts artifact files under {prefix}/{run_id}/.
type Uploader struct {
	client PutObjectAPI
	log    *logger.Logger
	bucket string
	prefix string
}

// New builds an uploader on the default AWS credential chain.
func New(ctx context.Context, cfg *config.ArchiveConfig, log *logger.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, config.ErrMissingArchiveBucket
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithClient(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithClient builds an uploader over an existing client.
func NewWithClient(client PutObjectAPI, bucket, prefix string, log *logger.Logger) *Uploader {
	if log == nil {
		log = logger.Discard()
	}

	return &Uploader{client: client, log: log, bucket: bucket, prefix: prefix}
}

// Key returns the object key of an artifact.
func (u *Uploader) Key(runID, name string) string {
	return path.Join(u.prefix, runID, name)
}

// Archive uploads each file and stops at the first failure.
func (u *Uploader) Archive(ctx context.Context, runID string, files []string) error {
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read artifact %s: %w", file, err)
		}

		key := u.Key(runID, filepath.Base(file))

		_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentTypeJSON),
		})
		if err != nil {
			return fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
		}

		u.log.Debug("Archived artifact", "bucket", u.bucket, "key", key, "bytes", len(data))
	}

	u.log.Info("Artifacts archived", "bucket", u.bucket, "count", len(files))

	return nil
}
