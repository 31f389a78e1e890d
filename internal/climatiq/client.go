// Package climatiq queries the Climatiq estimation API for the emission of an
// activity.
package climatiq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/superdango/ecojourney"
	"github.com/superdango/ecojourney/model/catalog"
)

const (
	DefaultBaseURL     = "https://beta4.api.climatiq.io"
	DefaultDataVersion = "^1"
	DefaultTimeout     = 10 * time.Second

	notFoundErrorCode = "no_emission_factors_found"
)

var (
	// ErrNotFound is returned when no emission factor matches the activity in
	// the requested region.
	ErrNotFound = errors.New("no emission factor found")
	// ErrUnauthenticated is returned when the API key is missing or rejected.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrMalformedResponse is returned when the answer cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// Request is an estimation of a single activity.
type Request struct {
	ActivityID string
	Region     string
	Source     string
	Parameter  catalog.Parameter
	Quantity   float64
}

func (r Request) String() string {
	return fmt.Sprintf("%s@%s", r.ActivityID, r.Region)
}

// Estimate is the answer of the API, normalized in kilograms.
type Estimate struct {
	Emissions ecojourney.Emissions
	// Unit is the unit the API answered with
	Unit   string
	Region string
}

type estimateResponse struct {
	CO2e           float64 `mapstructure:"co2e"`
	CO2eUnit       string  `mapstructure:"co2e_unit"`
	EmissionFactor struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"emission_factor"`
}

type errorResponse struct {
	Error     string `mapstructure:"error"`
	ErrorCode string `mapstructure:"error_code"`
	Message   string `mapstructure:"message"`
}

type Client struct {
	baseURL     string
	apiKey      string
	dataVersion string
	timeout     time.Duration
	httpClient  *http.Client

	calls atomic.Int64
}

type Option func(c *Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

func WithDataVersion(version string) Option {
	return func(c *Client) {
		c.dataVersion = version
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		dataVersion: DefaultDataVersion,
		timeout:     DefaultTimeout,
		httpClient:  http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Authenticated reports whether an API key is configured.
func (c *Client) Authenticated() bool {
	return c.apiKey != ""
}

// Collect sends the number of requests sent to the API on metrics.
func (c *Client) Collect(metrics chan *ecojourney.Metric) {
	metrics <- &ecojourney.Metric{Name: "ecojourney_remote_calls_total", Value: float64(c.calls.Load())}
}

func (c *Client) payload(req Request) map[string]any {
	emissionFactor := map[string]any{
		"activity_id":  req.ActivityID,
		"data_version": c.dataVersion,
		"region":       req.Region,
	}
	if req.Source != "" {
		emissionFactor["source"] = req.Source
	}

	return map[string]any{
		"emission_factor": emissionFactor,
		"parameters": map[string]any{
			string(req.Parameter):           req.Quantity,
			string(req.Parameter) + "_unit": req.Parameter.Unit(),
		},
	}
}

// Estimate sends the request and returns the emission in kgCO2e. Not found
// answers wrap ErrNotFound, every other failure is a *ecojourney.RequestErr.
func (c *Client) Estimate(ctx context.Context, req Request) (Estimate, error) {
	if !c.Authenticated() {
		return Estimate{}, &ecojourney.RequestErr{Err: ErrUnauthenticated, Operation: "estimate"}
	}

	ecojourney.IncrCalls(ctx)
	c.calls.Add(1)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(c.payload(req))
	if err != nil {
		return Estimate{}, &ecojourney.RequestErr{Err: err, Operation: "estimate"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/estimate", bytes.NewReader(body))
	if err != nil {
		return Estimate{}, &ecojourney.RequestErr{Err: err, Operation: "estimate"}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Debug("sending estimate request", "activity_id", req.ActivityID, "region", req.Region)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Estimate{}, &ecojourney.RequestErr{Err: fmt.Errorf("failed to send request for %s: %w", req, err), Operation: "estimate"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Estimate{}, &ecojourney.RequestErr{Err: err, Operation: "estimate", Status: resp.StatusCode}
	}

	if resp.StatusCode != http.StatusOK {
		return Estimate{}, statusError(req, resp.StatusCode, raw)
	}

	return decodeEstimate(req, raw)
}

func decodeEstimate(req Request, raw []byte) (Estimate, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Estimate{}, &ecojourney.RequestErr{Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err), Operation: "estimate", Status: http.StatusOK}
	}

	if _, found := data["co2e"]; !found {
		return Estimate{}, &ecojourney.RequestErr{Err: fmt.Errorf("%w: co2e is missing", ErrMalformedResponse), Operation: "estimate", Status: http.StatusOK}
	}

	response := new(estimateResponse)
	if err := mapstructure.Decode(data, response); err != nil {
		return Estimate{}, &ecojourney.RequestErr{Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err), Operation: "estimate", Status: http.StatusOK}
	}

	emissions, err := ecojourney.NewEmissions(response.CO2e, response.CO2eUnit)
	if err != nil {
		return Estimate{}, &ecojourney.RequestErr{Err: fmt.Errorf("%w: %w (unit %q)", ErrMalformedResponse, err, response.CO2eUnit), Operation: "estimate", Status: http.StatusOK}
	}

	region := response.EmissionFactor.Region
	if region == "" {
		region = req.Region
	}

	return Estimate{Emissions: emissions, Unit: response.CO2eUnit, Region: region}, nil
}

func statusError(req Request, status int, raw []byte) error {
	response := new(errorResponse)
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err == nil {
		if err := mapstructure.Decode(data, response); err != nil {
			slog.Debug("unable to decode error response", "err", err)
		}
	}

	switch {
	case status == http.StatusNotFound,
		status == http.StatusBadRequest && response.ErrorCode == notFoundErrorCode:
		return fmt.Errorf("%s: %w", req, ErrNotFound)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ecojourney.RequestErr{Err: ErrUnauthenticated, Operation: "estimate", Status: status}
	}

	message := response.Message
	if message == "" {
		message = http.StatusText(status)
	}

	return &ecojourney.RequestErr{Err: fmt.Errorf("%s: %s", req, message), Operation: "estimate", Status: status}
}
