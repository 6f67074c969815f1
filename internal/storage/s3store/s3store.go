// Package s3store keeps tables as CSV objects in an S3 bucket, one object
// per table at <prefix>/<name>.csv. Any S3-compatible endpoint (MinIO,
// LocalStack) can be targeted with Config.Endpoint.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/retry"
	"github.com/specialistvlad/flightgrid/internal/table"
)

// Client is the subset of *s3.Client used by the store.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config configures the bucket layout and client.
type Config struct {
	Bucket string
	Prefix string
	// Region overrides the region from the AWS environment.
	Region string
	// Endpoint targets an S3-compatible service and enables path-style
	// addressing.
	Endpoint string
	Retry    retry.Config
}

// Store implements storage.Store on S3.
type Store struct {
	client Client
	cfg    Config
}

// New builds a client from the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient uses an existing client.
func NewWithClient(client Client, cfg Config) *Store {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	return &Store{client: client, cfg: cfg}
}

// Key returns the object key of the named table.
func (s *Store) Key(name string) string {
	return path.Join(s.cfg.Prefix, name+".csv")
}

func (s *Store) Read(ctx context.Context, name string) (*table.Table, error) {
	key := s.Key(name)
	var body []byte
	err := retry.Do(ctx, s.cfg.Retry, "s3 get "+key, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNotFound(err) {
				return etlerr.NotFound(name, err)
			}
			return err
		}
		defer out.Body.Close()
		body, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	t, err := table.DecodeCSV(bytes.NewReader(body))
	if err != nil {
		return nil, etlerr.WithTable(err, name)
	}
	return t, nil
}

func (s *Store) Write(ctx context.Context, name string, t *table.Table) error {
	var buf bytes.Buffer
	if err := table.EncodeCSV(&buf, t); err != nil {
		return etlerr.WriteFailure(name, err)
	}
	key := s.Key(name)
	err := retry.Do(ctx, s.cfg.Retry, "s3 put "+key, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.cfg.Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(buf.Bytes()),
			ContentLength: aws.Int64(int64(buf.Len())),
			ContentType:   aws.String("text/csv"),
		})
		return err
	})
	if err != nil {
		return etlerr.WriteFailure(name, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
