package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/applyflow/pkg/logger"
	"github.com/okian/applyflow/pkg/metrics"
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// base holds the HTTP plumbing shared by collectors.
type base struct {
	source   string
	baseURL  string
	client   *http.Client
	throttle Throttle
	log      logger.Logger
}

func newBase(source, baseURL string, opts ...Option) base {
	b := base{
		source:   source,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: defaultTimeout},
		throttle: NewThrottle(defaultDelay),
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.log == nil {
		b.log = logger.Named("collector." + source)
	}
	return b
}

// getJSON fetches url and decodes the body into v. Numbers decode as
// json.Number when v holds interface values.
func (b *base) getJSON(ctx context.Context, rawURL string, v any) error {
	start := time.Now()
	defer func() { metrics.RecordFetchLatency(b.source, metrics.Since(start)) }()

	shown := redact(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &FetchError{Source: b.source, URL: shown, Err: errors.New("invalid request url")}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return &FetchError{Source: b.source, URL: shown, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return &FetchError{Source: b.source, URL: shown, Status: resp.StatusCode}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &FetchError{Source: b.source, URL: shown, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// redact masks credential query parameters so URLs are safe to log.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	for _, key := range []string{"app_key", "app_id"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
