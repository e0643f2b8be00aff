package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"interactive-maps-server/config"
	"interactive-maps-server/internal/model"
	"interactive-maps-server/internal/ports"
)

const (
	bearerExpiryBuffer = time.Minute
	maxErrorBodySize   = 1 << 10
	defaultBreakerTrip = 5
)

var criteriaEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, `,`, `\,`)

type recordsResponse struct {
	Data []model.MapAccess `json:"data"`
}

// IdentityService : HTTP client of the external source of map access records
type IdentityService struct {
	cfg           *config.IdentityConfig
	client        *http.Client
	oauth         *oauth2.Config
	clientCtx     context.Context
	cache         ports.BearerTokenCache
	mu            sync.Mutex
	source        oauth2.TokenSource
	tokenBreaker  *gobreaker.CircuitBreaker
	recordBreaker *gobreaker.CircuitBreaker
	logger        *zap.Logger
}

// NewIdentityService : cache may be nil, the bearer token is then kept in process only
func NewIdentityService(cfg *config.IdentityConfig, cache ports.BearerTokenCache, logger *zap.Logger) *IdentityService {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = defaultBreakerTrip
	}

	client := &http.Client{Timeout: cfg.Timeout}
	return &IdentityService{
		cfg:    cfg,
		client: client,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimRight(cfg.AccountsURL, "/") + "/oauth/v2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		clientCtx:     context.WithValue(context.Background(), oauth2.HTTPClient, client),
		cache:         cache,
		tokenBreaker:  newIdentityBreaker("identity-token", threshold, cfg.BreakerTimeout, logger),
		recordBreaker: newIdentityBreaker("identity-records", threshold, cfg.BreakerTimeout, logger),
		logger:        logger,
	}
}

func newIdentityBreaker(name string, threshold uint32, timeout time.Duration, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrUnauthorized)
		},
	})
}

// FetchAccessToken : bearer token for the records API, from cache when possible
func (s *IdentityService) FetchAccessToken(ctx context.Context) (string, error) {
	if s.cache != nil {
		token, err := s.cache.GetBearerToken(ctx)
		if err != nil {
			s.logger.Warn("bearer token cache read failed", zap.Error(err))
		} else if token != "" {
			return token, nil
		}
	}

	source := s.tokenSource()
	result, err := s.execute(s.tokenBreaker, "token", func() (interface{}, error) {
		return source.Token()
	})
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	token := result.(*oauth2.Token)

	if s.cache != nil && !token.Expiry.IsZero() {
		if ttl := time.Until(token.Expiry) - bearerExpiryBuffer; ttl > 0 {
			if err := s.cache.SetBearerToken(ctx, token.AccessToken, ttl); err != nil {
				s.logger.Warn("bearer token cache write failed", zap.Error(err))
			}
		}
	}

	return token.AccessToken, nil
}

func (s *IdentityService) tokenSource() oauth2.TokenSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		s.source = s.oauth.TokenSource(s.clientCtx, &oauth2.Token{RefreshToken: s.cfg.RefreshToken})
	}
	return s.source
}

func (s *IdentityService) resetTokenSource() {
	s.mu.Lock()
	s.source = nil
	s.mu.Unlock()
}

// CurrentCode : name of the first record of the module, the authoritative access code
func (s *IdentityService) CurrentCode(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("fields", "Name")
	query.Set("per_page", "1")

	records, err := s.records(ctx, "current_code", "", query)
	if err != nil {
		return "", fmt.Errorf("fetch current code: %w", err)
	}

	code := strings.TrimSpace(records[0].Name)
	if code == "" {
		return "", errors.New("fetch current code: record has an empty Name")
	}
	return code, nil
}

// LookupByName : record whose Name equals name exactly
func (s *IdentityService) LookupByName(ctx context.Context, name string) (*model.MapAccess, error) {
	query := url.Values{}
	query.Set("criteria", fmt.Sprintf("(Name:equals:%s)", criteriaEscaper.Replace(name)))
	query.Set("fields", "Name")

	records, err := s.records(ctx, "lookup", "/search", query)
	if err != nil {
		return nil, fmt.Errorf("lookup map access: %w", err)
	}

	record := records[0]
	return &record, nil
}

func (s *IdentityService) records(ctx context.Context, operation, suffix string, query url.Values) ([]model.MapAccess, error) {
	records, err := s.requestWithToken(ctx, operation, suffix, query)
	if errors.Is(err, model.ErrUnauthorized) {
		s.logger.Info("bearer token rejected, retrying with a new one", zap.String("operation", operation))
		records, err = s.requestWithToken(ctx, operation, suffix, query)
	}
	return records, err
}

func (s *IdentityService) requestWithToken(ctx context.Context, operation, suffix string, query url.Values) ([]model.MapAccess, error) {
	token, err := s.FetchAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.execute(s.recordBreaker, operation, func() (interface{}, error) {
		return s.requestRecords(ctx, token, suffix, query)
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.MapAccess), nil
}

func (s *IdentityService) execute(breaker *gobreaker.CircuitBreaker, operation string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := breaker.Execute(fn)

	switch {
	case err == nil:
		identityRequestsTotal.WithLabelValues(operation, "ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		identityRequestsTotal.WithLabelValues(operation, "rejected").Inc()
	case errors.Is(err, model.ErrNotFound):
		identityRequestsTotal.WithLabelValues(operation, "not_found").Inc()
	case errors.Is(err, model.ErrUnauthorized):
		identityRequestsTotal.WithLabelValues(operation, "unauthorized").Inc()
	default:
		identityRequestsTotal.WithLabelValues(operation, "error").Inc()
	}

	return result, err
}

func (s *IdentityService) requestRecords(ctx context.Context, token, suffix string, query url.Values) ([]model.MapAccess, error) {
	endpoint := fmt.Sprintf("%s/%s%s?%s",
		strings.TrimRight(s.cfg.APIDomain, "/"), url.PathEscape(s.cfg.Module), suffix, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build records request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send records request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, model.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		s.dropCachedToken(ctx)
		return nil, fmt.Errorf("%w: records request rejected with status %d", model.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("records request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var records recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records response: %w", err)
	}
	if len(records.Data) == 0 {
		return nil, model.ErrNotFound
	}

	return records.Data, nil
}

func (s *IdentityService) dropCachedToken(ctx context.Context) {
	s.resetTokenSource()
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteBearerToken(ctx); err != nil {
		s.logger.Warn("bearer token cache delete failed", zap.Error(err))
	}
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return "unreadable body"
	}
	return strings.TrimSpace(string(data))
}
