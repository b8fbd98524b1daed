package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"foodpics/internal/pkg/circuitbreaker"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
)

const (
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIURL   = "https://oauth.reddit.com"
	requestTimeout  = 30 * time.Second
)

var ErrUnexpectedStatus = errors.New("unexpected reddit response status")

type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	// Subreddits joined by '+', e.g. "foo+bar+baz".
	Subreddits string
	// Overridable for tests.
	TokenURL string
	APIURL   string
}

// Reads the hot listing of a set of subreddits with application-only OAuth.
type Reddit struct {
	client     *http.Client
	apiURL     string
	subreddits string
	breaker    *circuitbreaker.CircuitBreaker
}

type listing struct {
	Data struct {
		Children []struct {
			Kind string            `json:"kind"`
			Data models.Submission `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Creates a new Reddit source. No request is made until Hot is called.
func NewReddit(cfg RedditConfig) *Reddit {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	base := &http.Client{
		Timeout:   requestTimeout,
		Transport: &userAgentTransport{userAgent: cfg.UserAgent, next: http.DefaultTransport},
	}
	credentials := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	client := credentials.Client(tokenCtx)
	client.Timeout = requestTimeout

	return &Reddit{
		client:     client,
		apiURL:     cfg.APIURL,
		subreddits: cfg.Subreddits,
		breaker:    circuitbreaker.NewCircuitBreaker("reddit", 3, 5*time.Minute),
	}
}

// Returns up to limit submissions from the hot listing, in listing order.
func (r *Reddit) Hot(ctx context.Context, limit int) ([]models.Submission, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot?limit=%s&raw_json=1",
		r.apiURL, r.subreddits, strconv.Itoa(limit))

	var submissions []models.Submission
	err := r.breaker.Execute(func() error {
		var err error
		submissions, err = r.fetch(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(submissions) > limit {
		submissions = submissions[:limit]
	}
	logger.Log.Info("Fetched hot submissions",
		zap.String("subreddits", r.subreddits),
		zap.Int("count", len(submissions)))
	return submissions, nil
}

func (r *Reddit) fetch(ctx context.Context, endpoint string) ([]models.Submission, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	response, err := r.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("reddit request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, response.StatusCode)
	}

	var page listing
	if err := json.NewDecoder(response.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	submissions := make([]models.Submission, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		// Only links (t3) are submissions.
		if child.Kind != "t3" {
			continue
		}
		submissions = append(submissions, child.Data)
	}
	return submissions, nil
}

// Reddit rejects requests without a descriptive User-Agent.
type userAgentTransport struct {
	userAgent string
	next      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.next.RoundTrip(request)
	}
	clone := request.Clone(request.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}
