package eligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/log"
	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/validators"
)

const lookupName = "eligibility"

type Config struct {
	BaseURL      string        `conf:"ELIGIBILITY_URL"`
	RetryMax     int           `conf:"ELIGIBILITY_RETRY_MAX" conf_default:"2"`
	RetryWaitMin time.Duration `conf:"ELIGIBILITY_RETRY_WAIT_MIN" conf_default:"100ms"`
	RetryWaitMax time.Duration `conf:"ELIGIBILITY_RETRY_WAIT_MAX" conf_default:"1s"`
}

func LoadConfig() (cfg Config, err error) {
	if err := conf.Checkout(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to load eligibility config")
	}
	return cfg, nil
}

// Client calls the external eligibility service over HTTP.
type Client struct {
	base       *url.URL
	httpClient *retryablehttp.Client
}

// Ensure Client satisfies the interface
var _ validators.EligibilityService = &Client{}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("eligibility service URL must be provided")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid eligibility service URL %s", cfg.BaseURL)
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		hc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		hc.RetryWaitMax = cfg.RetryWaitMax
	}
	hc.Logger = log.API

	return &Client{base: base, httpClient: hc}, nil
}

type eligibilityResponse struct {
	Status string `json:"status"`
}

// CheckEligibility asks the service whether the member is covered by the
// payer. A member unknown to the service is reported as ineligible.
func (c *Client) CheckEligibility(ctx context.Context, memberID, payerID string) (validators.EligibilityStatus, error) {
	u := *c.base
	u.Path += "/eligibility"
	q := url.Values{}
	q.Set("memberId", memberID)
	q.Set("payerId", payerID)
	u.RawQuery = q.Encode()

	body, status, err := c.get(ctx, u.String())
	if err != nil {
		return validators.Unknown, err
	}

	switch {
	case status == http.StatusNotFound:
		return validators.Ineligible, nil
	case status >= http.StatusBadRequest:
		return validators.Unknown, c.lookupError(ctx, &scruberrors.UnexpectedStatusCodeError{
			StatusCode: status,
			Err:        fmt.Errorf("eligibility check failed: %s", strings.TrimSpace(string(body))),
		})
	}

	var resp eligibilityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return validators.Unknown, c.lookupError(ctx, errors.Wrap(err, "failed to decode eligibility response"))
	}

	switch validators.EligibilityStatus(strings.ToLower(resp.Status)) {
	case validators.Eligible:
		return validators.Eligible, nil
	case validators.Ineligible:
		return validators.Ineligible, nil
	default:
		return validators.Unknown, nil
	}
}

// Ping checks that the eligibility service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	u := *c.base
	u.Path += "/_health"

	_, status, err := c.get(ctx, u.String())
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &scruberrors.UnexpectedStatusCodeError{StatusCode: status, Err: errors.New("eligibility service unhealthy")}
	}
	return nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, int, error) {
	req, err := retryablehttp.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to create eligibility request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, c.lookupError(ctx, err)
	}
	/* #nosec -- it's OK for us to ignore errors when attempt to cleanup response body */
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, c.lookupError(ctx, errors.Wrap(err, "failed to read eligibility response"))
	}
	return body, resp.StatusCode, nil
}

func (c *Client) lookupError(ctx context.Context, err error) error {
	return &scruberrors.LookupError{
		Err:     err,
		Lookup:  lookupName,
		Timeout: ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded),
	}
}

// NewService returns a Client for cfg, or a nil service when no URL is
// configured so that callers fall back to unknown eligibility.
func NewService(cfg Config) (validators.EligibilityService, error) {
	if cfg.BaseURL == "" {
		log.API.Warn("ELIGIBILITY_URL not set; member eligibility will be reported as unknown")
		return nil, nil
	}
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}
