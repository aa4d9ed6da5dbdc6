package meeting

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
	"golang.org/x/time/rate"

	"github.com/mindbridge/counsel/backend/internal/config"
)

var (
	ErrRateLimited = errors.New("meeting creation rate limited")
	ErrNoJoinLink  = errors.New("provider returned no join link")
)

// Meeting is the subset of the provider's meeting object the service uses.
type Meeting struct {
	ID         string `json:"id"`
	WebLink    string `json:"webLink"`
	SIPAddress string `json:"sipAddress,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
	State      string `json:"state,omitempty"`
}

// Scheduler books video meetings.
type Scheduler interface {
	CreateMeeting(ctx context.Context, title string, urgent bool) (Meeting, error)
}

// Provider books, inspects and removes meetings.
type Provider interface {
	Scheduler
	MeetingStatus(ctx context.Context, meetingID string) (string, error)
	EndMeeting(ctx context.Context, meetingID string) error
}

// StateEnded is the provider state of a meeting that already took place.
const StateEnded = "ended"

// WebexClient talks to the Webex meetings REST API.
type WebexClient struct {
	baseURL    string
	token      string
	duration   time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

var _ Provider = (*WebexClient)(nil)

// NewWebexClient builds a client from configuration. RatePerMinute == 0
// disables outbound limiting.
func NewWebexClient(cfg config.WebexConfig) *WebexClient {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}

	duration := cfg.MeetingDuration
	if duration <= 0 {
		duration = time.Hour
	}

	return &WebexClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		duration:   duration,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		now:        time.Now,
	}
}

type createMeetingRequest struct {
	Title                  string `json:"title"`
	Start                  string `json:"start"`
	End                    string `json:"end"`
	EnabledAutoRecord      bool   `json:"enabledAutoRecordMeeting"`
	AllowAnyUserToBeCoHost bool   `json:"allowAnyUserToBeCoHost"`
	EnabledJoinBeforeHost  bool   `json:"enabledJoinBeforeHost"`
	JoinBeforeHostMinutes  int    `json:"joinBeforeHostMinutes"`
	PublicMeeting          bool   `json:"publicMeeting"`
}

// CreateMeeting books a meeting starting now. A response without a join link
// is treated as a failure.
func (c *WebexClient) CreateMeeting(ctx context.Context, title string, urgent bool) (Meeting, error) {
	if !c.limiter.Allow() {
		return Meeting{}, ErrRateLimited
	}

	start := c.now().UTC()
	payload := createMeetingRequest{
		Title:                 title,
		Start:                 start.Format(time.RFC3339),
		End:                   start.Add(c.duration).Format(time.RFC3339),
		EnabledJoinBeforeHost: true,
		JoinBeforeHostMinutes: 5,
	}

	slog.Info("Creating meeting", "title", title, "urgent", urgent)

	var created Meeting
	if err := c.do(ctx, http.MethodPost, "/meetings", payload, &created); err != nil {
		return Meeting{}, err
	}
	if created.WebLink == "" {
		return Meeting{}, oops.In("webex").With("meeting_id", created.ID).Wrap(ErrNoJoinLink)
	}

	slog.Info("Created meeting", "meeting_id", created.ID, "urgent", urgent)
	return created, nil
}

// MeetingStatus returns the provider-reported state of a meeting.
func (c *WebexClient) MeetingStatus(ctx context.Context, meetingID string) (string, error) {
	var m Meeting
	if err := c.do(ctx, http.MethodGet, "/meetings/"+url.PathEscape(meetingID), nil, &m); err != nil {
		return "", err
	}
	return m.State, nil
}

// EndMeeting deletes a scheduled meeting.
func (c *WebexClient) EndMeeting(ctx context.Context, meetingID string) error {
	return c.do(ctx, http.MethodDelete, "/meetings/"+url.PathEscape(meetingID), nil, nil)
}

func (c *WebexClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return oops.In("webex").With("method", method, "path", path).Wrapf(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &apiErr)
		return oops.In("webex").
			With("method", method, "path", path, "status", resp.StatusCode).
			Errorf("webex api error: %s", firstNonEmpty(apiErr.Message, resp.Status))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SignatureHeader carries the webhook body signature.
const SignatureHeader = "X-Spark-Signature"

// VerifySignature checks the hex HMAC-SHA1 of the webhook body keyed with
// the webhook secret. An empty secret disables verification.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}

	expected, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
