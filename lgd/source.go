package lgd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// mirrors
	_ "gocloud.dev/blob/gcsblob"  // gs:// mirrors
	_ "gocloud.dev/blob/s3blob"   // s3:// mirrors
)

// Source opens the raw CSV behind a dataset URL.
type Source interface {
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// HTTPSource fetches CSVs over HTTP(S).
type HTTPSource struct {
	Client *http.Client
}

// NewHTTPSource returns an HTTP source whose client gives up after timeout.
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	return &HTTPSource{Client: &http.Client{Timeout: timeout}}
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, */*")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return resp.Body, nil
}

// BlobSource reads CSV mirrors from a gocloud.dev bucket (file://, gs://, s3://).
type BlobSource struct{}

// Open implements Source. The bucket is opened per call and closed together
// with the returned reader.
func (BlobSource) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	bucketURL, key, err := splitBlobURL(rawURL)
	if err != nil {
		return nil, err
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		bucket.Close()
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return &bucketReader{Reader: r, bucket: bucket}, nil
}

type bucketReader struct {
	*blob.Reader
	bucket *blob.Bucket
}

func (r *bucketReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.bucket.Close(); err == nil {
		err = cerr
	}
	return err
}

// splitBlobURL turns "gs://bucket/Data/x.csv" into ("gs://bucket", "Data/x.csv")
// and "file:///srv/lgd/Data/x.csv" into ("file:///srv/lgd/Data", "x.csv").
func splitBlobURL(rawURL string) (bucketURL, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return "", "", fmt.Errorf("no object key in %s", rawURL)
	}

	b := url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}
	if u.Scheme == "file" {
		b.Path = path.Dir(u.Path)
		key = path.Base(u.Path)
	} else {
		key = strings.TrimPrefix(u.Path, "/")
	}
	return b.String(), key, nil
}

// SchemeSource dispatches on the URL scheme.
type SchemeSource struct {
	HTTP Source
	Blob Source
}

// NewSchemeSource wires HTTP(S) and bucket sources.
func NewSchemeSource(timeout time.Duration) *SchemeSource {
	return &SchemeSource{HTTP: NewHTTPSource(timeout), Blob: BlobSource{}}
}

// Open implements Source.
func (s *SchemeSource) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return s.HTTP.Open(ctx, rawURL)
	case "file", "gs", "s3":
		return s.Blob.Open(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported dataset url scheme %q", u.Scheme)
	}
}
