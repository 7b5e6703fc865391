// Package costapi is the HTTP client of the cost management API and its
// upload ingress.
package costapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 10
	maxErrorBody     = 512
)

// Config selects the API endpoints and credentials.
type Config struct {
	// APIURL is the API root, e.g. http://koku:8000/api/cost-management/v1.
	APIURL string
	// IngressURL is the full upload endpoint.
	IngressURL string
	Token      string
	// OrgID is sent as the identity org header when set.
	OrgID     string
	Timeout   time.Duration
	RateLimit float64
}

// Client implements boundary.HTTPBoundary.
type Client struct {
	apiURL     *url.URL
	ingressURL *url.URL
	token      string
	orgID      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.FieldLogger
}

var _ boundary.HTTPBoundary = (*Client)(nil)

func New(cfg Config, logger log.FieldLogger) (*Client, error) {
	c := &Client{
		token:  cfg.Token,
		orgID:  cfg.OrgID,
		logger: logger.WithField("component", "costapi"),
	}
	var err error
	if cfg.APIURL != "" {
		if c.apiURL, err = parseURL(cfg.APIURL); err != nil {
			return nil, boundary.Config("api url", err)
		}
	}
	if cfg.IngressURL != "" {
		if c.ingressURL, err = parseURL(cfg.IngressURL); err != nil {
			return nil, boundary.Config("ingress url", err)
		}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	limit := cfg.RateLimit
	if limit == 0 {
		limit = defaultRateLimit
	}
	c.httpClient = &http.Client{Timeout: timeout}
	c.limiter = rate.NewLimiter(rate.Limit(limit), int(limit)+1)
	return c, nil
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q is not an http(s) url", raw)
	}
	return u, nil
}

func (c *Client) endpoint(base *url.URL, endpoint string, query url.Values) *url.URL {
	u := *base
	u.Path = path.Join(base.Path, endpoint)
	if strings.HasSuffix(endpoint, "/") {
		u.Path += "/"
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return &u
}

func (c *Client) doRequest(ctx context.Context, op, method string, u *url.URL, body io.Reader, contentType string) (respBody []byte, code int, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, boundary.Inconclusive(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, 0, boundary.Config(op, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.orgID != "" {
		req.Header.Set("X-Org-Id", c.orgID)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, boundary.Classify(op, err)
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, boundary.Transient(op, err)
	}
	c.logger.WithFields(log.Fields{
		"method": method,
		"url":    u.Path,
		"status": resp.StatusCode,
		"took":   time.Since(start),
	}).Debug("api request")
	return respBody, resp.StatusCode, nil
}

// statusError classifies a non-success response.
func statusError(op string, code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	err := fmt.Errorf("unexpected status %d: %s", code, msg)
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return boundary.Transport(op, err)
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return boundary.Transient(op, err)
	default:
		return boundary.Logical(op, err)
	}
}

// Status succeeds when the API reports itself up.
func (c *Client) Status(ctx context.Context) error {
	const op = "api status"
	if c.apiURL == nil {
		return boundary.Config(op, errNoAPI)
	}
	body, code, err := c.doRequest(ctx, op, http.MethodGet, c.endpoint(c.apiURL, "status/", nil), nil, "")
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return statusError(op, code, body)
	}
	return nil
}

// TriggerProcessing asks the workers to download and process the source now.
func (c *Client) TriggerProcessing(ctx context.Context, sourceUUID string) error {
	const op = "trigger processing"
	if c.apiURL == nil {
		return boundary.Config(op, errNoAPI)
	}
	q := url.Values{}
	q.Set("provider_uuid", sourceUUID)
	body, code, err := c.doRequest(ctx, op, http.MethodGet, c.endpoint(c.apiURL, "download/", q), nil, "")
	if err != nil {
		return err
	}
	if code != http.StatusOK && code != http.StatusAccepted {
		return statusError(op, code, body)
	}
	return nil
}

func jsonBody(v []byte) io.Reader {
	if v == nil {
		return nil
	}
	return bytes.NewReader(v)
}
