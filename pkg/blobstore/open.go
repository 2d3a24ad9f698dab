package blobstore

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

// Backend names accepted by Config.Backend.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Config selects and configures a backend.
type Config struct {
	Backend     string `yaml:"backend" json:"backend"`
	Dir         string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Bucket      string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix      string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Region      string `yaml:"region,omitempty" json:"region,omitempty"`
	AccessKey   string `yaml:"access_key,omitempty" json:"access_key,omitempty"`
	SecretKey   string `yaml:"secret_key,omitempty" json:"secret_key,omitempty"`
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty"`
	Level       int    `yaml:"level,omitempty" json:"level,omitempty"`
}

// Open builds the Store described by cfg.
//
// For s3, credentials and region come from the default AWS chain unless set
// in cfg; a custom endpoint switches to path-style addressing. For minio,
// Endpoint is a host:port or URL; an http:// URL disables TLS.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", BackendLocal:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("blobstore: local backend needs dir")
		}
		s, err = NewLocal(cfg.Dir)
	case BackendS3:
		s, err = openS3(ctx, cfg)
	case BackendMinIO:
		s, err = openMinIO(cfg)
	default:
		return nil, fmt.Errorf("blobstore: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	switch cfg.Compression {
	case "", "none":
		return s, nil
	case "zstd":
		z, err := NewZstd(s, cfg.Level)
		if err != nil {
			return nil, err
		}
		return z, nil
	default:
		return nil, fmt.Errorf("blobstore: unknown compression %q", cfg.Compression)
	}
}

func openS3(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blobstore: s3 backend needs bucket")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blobstore: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3(client, cfg.Bucket, cfg.Prefix), nil
}

func openMinIO(cfg Config) (Store, error) {
	if cfg.Bucket == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("blobstore: minio backend needs bucket and endpoint")
	}
	host, secure := cfg.Endpoint, true
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		host, secure = u.Host, u.Scheme != "http"
	}
	client, err := minio.New(host, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: minio client: %w", err)
	}
	return NewMinIO(client, cfg.Bucket, cfg.Prefix), nil
}
