// Package backup copies world snapshots to S3-compatible object storage
// (AWS S3 or MinIO) as JSON documents.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/talgya/idle-galaxy/internal/world"
)

// ErrNoBackup is returned by Latest when the bucket holds no snapshot.
var ErrNoBackup = errors.New("no backup found")

const latestKey = "latest.json"

// Config holds the bucket location and optional static credentials. Without
// credentials the default AWS chain (env, shared config, IMDS) is used.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; set for MinIO and other S3-compatible stores
	Prefix          string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Uploader writes timestamped snapshots plus a latest.json pointer copy.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string

	Now    func() time.Time
	Logger *slog.Logger
}

// New builds an uploader from cfg.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing S3 client.
func NewWithClient(client *s3.Client, bucket, prefix string) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: prefix}
}

func (u *Uploader) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u *Uploader) log() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}

func (u *Uploader) key(name string) string {
	return path.Join(u.prefix, name)
}

// Save uploads st as snapshots/<timestamp>.json and overwrites latest.json.
func (u *Uploader) Save(ctx context.Context, st *world.State) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	stamped := u.key("snapshots/" + u.now().UTC().Format("20060102T150405.000000000Z") + ".json")
	for _, key := range []string{stamped, u.key(latestKey)} {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
			Metadata:    map[string]string{"version": st.Version},
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}
	u.log().Info("snapshot backed up", "bucket", u.bucket, "key", stamped, "bytes", len(body))
	return nil
}

// Latest downloads the most recent snapshot.
func (u *Uploader) Latest(ctx context.Context) (*world.State, error) {
	key := u.key(latestKey)
	out, err := u.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(u.bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNoBackup
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var st world.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &st, nil
}

// List returns the keys of all timestamped snapshots, oldest first.
func (u *Uploader) List(ctx context.Context) ([]string, error) {
	prefix := u.key("snapshots/")
	var keys []string
	var token *string
	for {
		out, err := u.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(u.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(keys)
	return keys, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var api smithy.APIError
	if errors.As(err, &api) {
		switch api.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
