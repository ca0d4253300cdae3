package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"playtime-cli/logging"
	"playtime-cli/model"
)

const (
	defaultBaseURL     = "https://api.playtimehq.com/v1"
	defaultMaxAttempts = 3
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
)

// Client wraps HTTP access to the Playtime booking API. Reads retry bounded
// on transient failures; mutations are issued exactly once.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	log         *slog.Logger
	validate    *validator.Validate
	maxAttempts int
	retryBase   time.Duration
	retryCap    time.Duration
}

// NewClient creates a new API client. If httpClient is nil, a default client
// is used; if log is nil, logs are discarded.
func NewClient(httpClient *http.Client, baseURL string, token string, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		log:         log,
		validate:    validator.New(),
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		retryCap:    defaultRetryCap,
	}
}

// MyBookings fetches the caller's bookings. The result is authoritative;
// nothing is cached between calls.
func (c *Client) MyBookings(ctx context.Context) ([]model.Booking, error) {
	endpoint := fmt.Sprintf("%s/bookings/my", c.baseURL)

	var payload struct {
		Bookings []model.Booking `json:"bookings"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Bookings, nil
}

// sessionEntry is the wire shape of one candidate row. Partial API failures
// are known to leak validation-error objects into the sessions array, so the
// error-marker fields are decoded and rejected here.
type sessionEntry struct {
	Id             string `json:"id" validate:"required"`
	Date           string `json:"date"`
	StartAt        string `json:"start_at"`
	SeatsAvailable *int   `json:"seats_available"`

	Type string `json:"type" validate:"isdefault"`
	Msg  string `json:"msg" validate:"isdefault"`
	Loc  any    `json:"loc"`
}

// ListingSessions fetches reschedule candidates for a listing between two
// dates. Malformed rows are dropped and logged rather than failing the fetch.
func (c *Client) ListingSessions(ctx context.Context, listingId string, from time.Time, to time.Time) ([]model.SessionCandidate, error) {
	if strings.TrimSpace(listingId) == "" {
		return nil, errors.New("listing id is required")
	}
	endpoint := fmt.Sprintf("%s/listings/%s/sessions?from_date=%s&to_date=%s",
		c.baseURL,
		url.PathEscape(listingId),
		from.Format(time.DateOnly),
		to.Format(time.DateOnly),
	)

	var payload struct {
		Sessions []sessionEntry `json:"sessions"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	candidates := make([]model.SessionCandidate, 0, len(payload.Sessions))
	for _, entry := range payload.Sessions {
		candidate, err := c.candidateFromEntry(entry)
		if err != nil {
			c.log.Warn("dropping malformed session candidate",
				slog.String("listing_id", listingId),
				slog.String("session_id", entry.Id),
				logging.Err(err),
			)
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (c *Client) candidateFromEntry(entry sessionEntry) (model.SessionCandidate, error) {
	if err := c.validate.Struct(entry); err != nil {
		return model.SessionCandidate{}, fmt.Errorf("error-shaped or incomplete entry: %w", err)
	}
	if entry.Loc != nil {
		return model.SessionCandidate{}, errors.New("error-shaped entry: loc marker present")
	}
	raw := entry.Date
	if raw == "" {
		raw = entry.StartAt
	}
	if raw == "" {
		return model.SessionCandidate{}, errors.New("missing session date")
	}
	start, err := model.ParseTime(raw)
	if err != nil {
		return model.SessionCandidate{}, fmt.Errorf("unparseable session date %q: %w", raw, err)
	}
	return model.SessionCandidate{
		Id:             entry.Id,
		StartAt:        start,
		SeatsAvailable: entry.SeatsAvailable,
	}, nil
}

// Reschedule swaps the booking onto a new session. The call is made once;
// any failure is terminal for the attempt.
func (c *Client) Reschedule(ctx context.Context, bookingId string, newSessionId string) error {
	if bookingId == "" || newSessionId == "" {
		return errors.New("booking id and new session id are required")
	}
	endpoint := fmt.Sprintf("%s/bookings/%s/reschedule", c.baseURL, url.PathEscape(bookingId))
	body := map[string]string{"new_session_id": newSessionId}
	return c.postJSON(ctx, endpoint, body)
}

// Cancel cancels the booking. Like Reschedule, it is never retried.
func (c *Client) Cancel(ctx context.Context, bookingId string) error {
	if bookingId == "" {
		return errors.New("booking id is required")
	}
	endpoint := fmt.Sprintf("%s/bookings/%s/cancel", c.baseURL, url.PathEscape(bookingId))
	return c.postJSON(ctx, endpoint, nil)
}

func (c *Client) newRequest(ctx context.Context, method string, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			apiErr := c.readAPIError(res, endpoint)
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return c.readAPIError(res, endpoint)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func (c *Client) readAPIError(res *http.Response, endpoint string) *APIError {
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
	_ = res.Body.Close()

	apiErr := &APIError{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Endpoint:   endpoint,
		Detail:     flattenDetail(snippet),
		Body:       strings.TrimSpace(string(snippet)),
	}
	c.log.Debug("api error response",
		slog.String("endpoint", endpoint),
		slog.Int("status", apiErr.StatusCode),
		slog.String("detail", apiErr.Detail),
	)
	return apiErr
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
