package beacon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"
)

// ErrResolverUnavailable means the metadata service could not be reached
// after all retries. The scanner reports it as a network error.
var ErrResolverUnavailable = errors.New("metadata resolver unavailable")

const (
	DefaultResolverTimeout = 5 * time.Second
	DefaultResolverRetries = 2

	resolvePath = "/resolve-scan"
	maxBodySize = 1 << 20
)

// Metadata is what the resolver knows about a broadcast URL.
type Metadata struct {
	URL         string `json:"url"`
	DisplayURL  string `json:"displayUrl"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Resolver turns a broadcast URL into displayable metadata.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (Metadata, error)
}

// OfflineResolver derives metadata from the URL alone.
type OfflineResolver struct{}

func (OfflineResolver) Resolve(_ context.Context, rawURL string) (Metadata, error) {
	return offlineMetadata(rawURL), nil
}

func offlineMetadata(rawURL string) Metadata {
	md := Metadata{URL: rawURL, Title: rawURL, DisplayURL: rawURL}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return md
	}
	md.DisplayURL = strings.TrimSuffix(u.Host+u.EscapedPath(), "/")
	md.Title = u.Host
	return md
}

// HTTPResolver asks a metadata service about each URL, retrying transport
// failures and 5xx responses with exponential backoff.
type HTTPResolver struct {
	baseURL    string
	client     *http.Client
	retries    int
	newBackOff func() backoff.BackOff
	logger     *log.Entry
}

func NewHTTPResolver(baseURL string, timeout time.Duration, retries int) *HTTPResolver {
	if timeout <= 0 {
		timeout = DefaultResolverTimeout
	}
	if retries < 0 {
		retries = 0
	}
	return &HTTPResolver{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		logger: log.WithField("component", "resolver"),
	}
}

type resolveRequest struct {
	Objects []resolveObject `json:"objects"`
}

type resolveObject struct {
	URL string `json:"url"`
}

type resolveResponse struct {
	Metadata []Metadata `json:"metadata"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, rawURL string) (Metadata, error) {
	attempt := 0
	operation := func() (Metadata, error) {
		attempt++
		md, err := r.resolveOnce(ctx, rawURL)
		if err != nil {
			r.logger.WithError(err).WithFields(log.Fields{
				"url":     rawURL,
				"attempt": attempt,
			}).Debug("resolve attempt failed")
		}
		return md, err
	}

	md, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(uint(r.retries+1)),
	)
	if err != nil {
		var rejected *rejectedError
		if errors.As(err, &rejected) {
			return Metadata{}, fmt.Errorf("resolve %s: %w", rawURL, rejected.err)
		}
		if ctx.Err() != nil {
			return Metadata{}, ctx.Err()
		}
		return Metadata{}, fmt.Errorf("%w: %w", ErrResolverUnavailable, err)
	}
	return md, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("resolver returned %d", e.code)
}

// rejectedError marks failures that retrying cannot fix and that do not
// point at the network.
type rejectedError struct {
	err error
}

func (e *rejectedError) Error() string { return e.err.Error() }

func (e *rejectedError) Unwrap() error { return e.err }

func reject(err error) error {
	return backoff.Permanent(&rejectedError{err: err})
}

func (r *HTTPResolver) resolveOnce(ctx context.Context, rawURL string) (Metadata, error) {
	body, err := json.Marshal(resolveRequest{Objects: []resolveObject{{URL: rawURL}}})
	if err != nil {
		return Metadata{}, reject(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+resolvePath, bytes.NewReader(body))
	if err != nil {
		return Metadata{}, reject(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Metadata{}, &statusError{code: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Metadata{}, reject(&statusError{code: resp.StatusCode})
	}

	var out resolveResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&out); err != nil {
		return Metadata{}, reject(fmt.Errorf("decode response: %w", err))
	}

	md := offlineMetadata(rawURL)
	for _, found := range out.Metadata {
		if found.URL == "" {
			continue
		}
		md.URL = found.URL
		if found.Title != "" {
			md.Title = found.Title
		}
		if found.DisplayURL != "" {
			md.DisplayURL = found.DisplayURL
		}
		md.Description = found.Description
		md.Icon = found.Icon
		break
	}
	return md, nil
}
