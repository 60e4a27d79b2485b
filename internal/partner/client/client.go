// Package client talks to partner directory HTTP APIs: the directory's own
// /v1 API and the upstream company API partner records are imported from.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/partnerhub/internal/partner/errors"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"github.com/gartstein/partnerhub/internal/partner/normalize"
	"github.com/gartstein/partnerhub/internal/partner/search"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Option configures a client.
type Option func(*requester)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *requester) {
		r.http = hc
	}
}

// WithTimeout bounds each attempt. Zero keeps the default of 10s.
func WithTimeout(d time.Duration) Option {
	return func(r *requester) {
		if d > 0 {
			r.http.Timeout = d
		}
	}
}

// WithBackOff sets the retry policy. The factory is called once per request.
func WithBackOff(policy func() backoff.BackOff) Option {
	return func(r *requester) {
		r.backOff = policy
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, 3)
}

// requester performs JSON GET requests with retries. Network failures and 5xx
// responses are retried and surface as ErrTransientFetch; 404 maps to
// ErrNotFound and is never retried.
type requester struct {
	baseURL string
	http    *http.Client
	backOff func() backoff.BackOff
	logger  *zap.Logger
}

func newRequester(baseURL string, logger *zap.Logger, opts []Option) *requester {
	r := &requester{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		backOff: defaultBackOff,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *requester) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := r.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := r.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%w: %v", e.ErrTransientFetch, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %s", e.ErrNotFound, path))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %s returned %d", e.ErrTransientFetch, path, resp.StatusCode)
		case resp.StatusCode >= http.StatusBadRequest:
			return backoff.Permanent(fmt.Errorf("%w: %s returned %d: %s",
				e.ErrInvalidInput, path, resp.StatusCode, apiError(resp.Body)))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: malformed response from %s: %v", e.ErrTransientFetch, path, err))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("Retrying request",
			zap.Error(err),
			zap.String("path", path),
			zap.Duration("backoff", wait),
		)
	}
	return backoff.RetryNotify(op, backoff.WithContext(r.backOff(), ctx), notify)
}

// apiError extracts the {"error": "..."} message the APIs reply with.
func apiError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}

// Client reads the directory's /v1 API.
type Client struct {
	r *requester
}

func New(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	return &Client{r: newRequester(baseURL, logger.Named("directory_client"), opts)}
}

// ListPartners fetches one result page. Items are re-normalized so callers
// never see nil lists.
func (c *Client) ListPartners(ctx context.Context, params search.ListParams) (search.Page, error) {
	query, err := params.Values()
	if err != nil {
		return search.Page{}, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}

	var page search.Page
	if err := c.r.getJSON(ctx, "/v1/partners", query, &page); err != nil {
		return search.Page{}, err
	}
	if page.Items == nil {
		page.Items = []models.Partner{}
	}
	for i := range page.Items {
		page.Items[i] = normalize.Canonical(page.Items[i])
	}
	return page, nil
}

// ListAll walks every page of the unfiltered listing.
func (c *Client) ListAll(ctx context.Context) ([]models.Partner, error) {
	var all []models.Partner
	for page := 1; ; page++ {
		res, err := c.ListPartners(ctx, search.ListParams{Page: page})
		if err != nil {
			return nil, err
		}
		all = append(all, res.Items...)
		if !res.HasMore {
			return all, nil
		}
	}
}

func (c *Client) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: partner id is required", e.ErrInvalidInput)
	}
	var partner models.Partner
	if err := c.r.getJSON(ctx, "/v1/partners/"+url.PathEscape(id), nil, &partner); err != nil {
		return nil, err
	}
	partner = normalize.Canonical(partner)
	return &partner, nil
}

func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	if err := c.r.getJSON(ctx, "/v1/stats", nil, &stats); err != nil {
		return models.Stats{}, err
	}
	return stats, nil
}

// IsTransient reports whether err is worth retrying later.
func IsTransient(err error) bool {
	return errors.Is(err, e.ErrTransientFetch)
}
