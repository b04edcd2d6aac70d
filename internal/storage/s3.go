// Package storage archives fetched listing pages to S3-compatible object
// storage. Snapshots are best-effort debugging material: when a site's
// markup drifts and extraction starts missing articles, the archived page
// shows what the scraper actually saw.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/20yuto20/slack-news-aggregator/internal/config"
)

// Snapshots uploads gzip-compressed page captures.
type Snapshots struct {
	s3     *s3.Client
	bucket string
}

// pageMeta records where and when a snapshot was taken.
type pageMeta struct {
	Source     string    `json:"source"`
	PageURL    string    `json:"page_url"`
	CapturedAt time.Time `json:"captured_at"`
	RawHash    string    `json:"raw_hash_sha256"`
	SizeBytes  int       `json:"size_bytes"`
}

// NewSnapshots creates a snapshot client against any S3-compatible
// endpoint. With no endpoint configured it returns a disabled client that
// silently drops uploads.
func NewSnapshots(ctx context.Context, cfg config.S3Config) (*Snapshots, error) {
	if cfg.Endpoint == "" {
		slog.Warn("S3 endpoint not configured, page snapshots disabled")
		return &Snapshots{bucket: cfg.Bucket}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = &cfg.Endpoint
		o.UsePathStyle = true
	})

	return &Snapshots{
		s3:     client,
		bucket: cfg.Bucket,
	}, nil
}

// Configured reports whether uploads will actually happen.
func (c *Snapshots) Configured() bool {
	return c != nil && c.s3 != nil
}

// StorePage uploads one page capture plus its metadata. Keys are
// snapshots/<source>/<host>/<timestamp> so captures of one site sort
// chronologically.
func (c *Snapshots) StorePage(ctx context.Context, source, pageURL string, html []byte) error {
	if !c.Configured() {
		return nil
	}

	host := "unknown"
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = u.Host
	}

	ts := time.Now().UTC()
	prefix := fmt.Sprintf("snapshots/%s/%s/%s", source, host, ts.Format("20060102T150405Z"))

	meta := pageMeta{
		Source:     source,
		PageURL:    pageURL,
		CapturedAt: ts,
		RawHash:    sha256sum(html),
		SizeBytes:  len(html),
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal meta: %w", err)
	}

	compressed, err := gzipCompress(html)
	if err != nil {
		return fmt.Errorf("storage: compress page: %w", err)
	}

	uploads := map[string][]byte{
		prefix + ".html.gz":   compressed,
		prefix + ".meta.json": metaJSON,
	}
	for key, body := range uploads {
		key := key
		_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket: &c.bucket,
			Key:    &key,
			Body:   bytes.NewReader(body),
		})
		if err != nil {
			return fmt.Errorf("storage: put %s: %w", key, err)
		}
	}

	slog.Debug("page snapshot stored", "source", source, "url", pageURL, "bytes", len(compressed))
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}
