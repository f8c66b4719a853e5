package raster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used for ranged reads.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// source is an open raster: random access plus Close.
type source interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
}

func (in *Inspector) open(ctx context.Context, href string) (source, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("failed to parse raster href: %w", err)
	}

	switch u.Scheme {
	case "", "file":
		path := href
		if u.Scheme == "file" {
			path = u.Path
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open raster: %w", err)
		}
		return f, nil
	case "http", "https":
		return newRangeReader(ctx, in.httpFetch(u.String())), nil
	case "s3":
		client, err := in.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		bucket := u.Host
		key := strings.TrimPrefix(u.Path, "/")
		return newRangeReader(ctx, s3Fetch(client, bucket, key)), nil
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
}

func (in *Inspector) httpFetch(rawURL string) fetchFunc {
	return func(ctx context.Context, off, length int64) ([]byte, int64, int64, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, 0, -1, fmt.Errorf("error creating request for %s: %w", rawURL, err)
		}
		req.Header.Set("Range", rangeHeader(off, length))

		resp, err := in.httpClient.Do(req)
		if err != nil {
			return nil, 0, -1, fmt.Errorf("failed to read raster: %w", err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusPartialContent:
			start, total, err := parseContentRange(resp.Header.Get("Content-Range"))
			if err != nil {
				return nil, 0, -1, err
			}
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, 0, -1, fmt.Errorf("failed to read raster: %w", err)
			}
			return data, start, total, nil
		case http.StatusOK:
			// range ignored: skip to off and keep at most length bytes
			skipped, err := io.CopyN(io.Discard, resp.Body, off)
			if errors.Is(err, io.EOF) {
				return nil, off, skipped, nil
			}
			if err != nil {
				return nil, 0, -1, fmt.Errorf("failed to read raster: %w", err)
			}
			data, err := io.ReadAll(io.LimitReader(resp.Body, length))
			if err != nil {
				return nil, 0, -1, fmt.Errorf("failed to read raster: %w", err)
			}
			total := resp.ContentLength
			if int64(len(data)) < length {
				total = off + int64(len(data))
			}
			return data, off, total, nil
		case http.StatusRequestedRangeNotSatisfiable:
			_, total, _ := parseContentRange(resp.Header.Get("Content-Range"))
			return nil, off, total, nil
		default:
			return nil, 0, -1, fmt.Errorf("failed to read raster: unexpected status code %d for %s", resp.StatusCode, rawURL)
		}
	}
}

func s3Fetch(client S3API, bucket, key string) fetchFunc {
	return func(ctx context.Context, off, length int64) ([]byte, int64, int64, error) {
		result, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Range:  aws.String(rangeHeader(off, length)),
		})
		if err != nil {
			return nil, 0, -1, fmt.Errorf("failed to read raster from S3: %w", err)
		}
		defer result.Body.Close()

		data, err := io.ReadAll(result.Body)
		if err != nil {
			return nil, 0, -1, fmt.Errorf("failed to read raster from S3: %w", err)
		}

		if result.ContentRange == nil {
			return data, 0, int64(len(data)), nil
		}
		start, total, err := parseContentRange(aws.ToString(result.ContentRange))
		if err != nil {
			return nil, 0, -1, err
		}
		return data, start, total, nil
	}
}
