package raster

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Option configures an Inspector.
type Option func(*Inspector)

// WithHTTPClient sets the client used for http(s) rasters.
func WithHTTPClient(c *http.Client) Option {
	return func(in *Inspector) { in.httpClient = c }
}

// WithS3Client sets the client used for s3:// rasters. Without it the
// default AWS configuration is loaded on first use.
func WithS3Client(c S3API) Option {
	return func(in *Inspector) { in.s3 = c }
}

// Inspector reads raster metadata from local paths, http(s) URLs and s3 URLs.
type Inspector struct {
	httpClient *http.Client
	s3         S3API
}

// NewInspector returns an Inspector.
func NewInspector(opts ...Option) *Inspector {
	in := &Inspector{httpClient: &http.Client{Timeout: 60 * time.Second}}
	for _, o := range opts {
		o(in)
	}
	return in
}

// Inspect opens the raster at href, reads its metadata and closes it.
func (in *Inspector) Inspect(ctx context.Context, href string) (*Metadata, error) {
	src, err := in.open(ctx, href)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	md, err := Read(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", href, err)
	}
	return md, nil
}

func (in *Inspector) s3Client(ctx context.Context) (S3API, error) {
	if in.s3 != nil {
		return in.s3, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	in.s3 = s3.NewFromConfig(cfg)
	return in.s3, nil
}
