package osuapi

import (
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

	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://osu.ppy.sh"

	// legacyAPIVersion pins the score payload to the format with mod acronyms
	// and count_* statistics.
	legacyAPIVersion = "20220704"
)

// ErrUserNotFound is returned when a handle does not resolve to a user.
var ErrUserNotFound = errors.New("osu! user not found")

// APIError is returned for unexpected HTTP status codes.
type APIError struct {
	Status int
	Path   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("osu! api %s returned status %d", e.Path, e.Status)
}

// Config configures the osu! API v2 client.
type Config struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Client talks to the osu! API v2 with client-credential tokens.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a client. Tokens are fetched lazily and refreshed on expiry.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.BaseURL + "/oauth/token",
		Scopes:       []string{"public"},
	}
	// The token source outlives the construction context.
	httpClient := creds.Client(context.WithoutCancel(ctx))
	httpClient.Timeout = cfg.Timeout

	return &Client{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger,
	}
}

// LookupUser resolves a handle to the user's numeric id and display name.
func (c *Client) LookupUser(ctx context.Context, handle string) (osuvsdomain.Participant, error) {
	path := "/api/v2/users/" + url.PathEscape(handle) + "/osu"
	var user userResponse
	if err := c.get(ctx, path, url.Values{"key": {"username"}}, &user); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return osuvsdomain.Participant{}, fmt.Errorf("%w: %s", ErrUserNotFound, handle)
		}
		return osuvsdomain.Participant{}, err
	}
	return osuvsdomain.Participant{ID: osuvsdomain.ParticipantID(user.ID), Username: user.Username}, nil
}

// RecentScores returns the user's most recent submissions, failed plays included.
// Submissions with mods the bitmask cannot express are dropped.
func (c *Client) RecentScores(ctx context.Context, id osuvsdomain.ParticipantID, mode osuvsdomain.GameMode, limit int) ([]osuvsdomain.Submission, error) {
	path := fmt.Sprintf("/api/v2/users/%d/scores/recent", id)
	query := url.Values{
		"mode":          {string(mode)},
		"limit":         {fmt.Sprint(limit)},
		"include_fails": {"1"},
	}
	var scores []scoreResponse
	if err := c.get(ctx, path, query, &scores); err != nil {
		return nil, err
	}

	subs := make([]osuvsdomain.Submission, 0, len(scores))
	for _, s := range scores {
		mods, err := osuvsdomain.ParseMods(s.Mods)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping score with unsupported mods",
				slog.Uint64("score_id", s.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		sub := s.toDomain(mods)
		if sub.ParticipantID == 0 {
			sub.ParticipantID = id
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-version", legacyAPIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("osu! api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Status: resp.StatusCode, Path: path}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
