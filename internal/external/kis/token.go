package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/httputil"
	"github.com/wonny/pocscan/pkg/logger"
	"github.com/wonny/pocscan/pkg/redis"
)

// TokenResponse represents the OAuth token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type cachedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenSource issues and caches the KIS access token.
// Redis (if enabled) lets other processes reuse the same token.
// ⭐ SSOT: KIS 토큰 발급/캐시는 여기서만
type TokenSource struct {
	cfg        config.KISConfig
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	now        func() time.Time

	mu     sync.RWMutex
	token  string
	expiry time.Time
}

// NewTokenSource creates a token source; cache may be nil
func NewTokenSource(cfg config.KISConfig, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *TokenSource {
	return &TokenSource{
		cfg:        cfg,
		httpClient: httpClient,
		cache:      cache,
		logger:     log,
		now:        time.Now,
	}
}

// Token returns a valid access token, refreshing if necessary
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.token != "" && s.now().Before(s.expiry) {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if s.token != "" && s.now().Before(s.expiry) {
		return s.token, nil
	}

	if cached, ok := s.loadCached(ctx); ok {
		s.token, s.expiry = cached.AccessToken, cached.ExpiresAt
		return s.token, nil
	}

	token, expiry, err := s.issue(ctx)
	if err != nil {
		return "", err
	}
	s.token, s.expiry = token, expiry

	s.storeCached(ctx, cachedToken{AccessToken: token, ExpiresAt: expiry})
	return token, nil
}

// Invalidate drops the cached token (e.g. after a 401)
func (s *TokenSource) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.token, s.expiry = "", time.Time{}
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx, redis.TokenKey("kis", s.cfg.AppKey)); err != nil {
			s.logger.WithError(err).Warn("Failed to delete cached KIS token")
		}
	}
}

func (s *TokenSource) issue(ctx context.Context) (string, time.Time, error) {
	url := fmt.Sprintf("%s/oauth2/tokenP", s.cfg.BaseURL)
	payload, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     s.cfg.AppKey,
		"appsecret":  s.cfg.AppSecret,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode token request: %w", err)
	}

	resp, err := s.httpClient.Post(ctx, url, "application/json", strings.NewReader(string(payload)))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token response carried no access_token")
	}

	lifetime := time.Duration(tokenResp.ExpiresIn-60) * time.Second // 1분 여유
	if lifetime <= 0 || lifetime > redis.TTLToken {
		lifetime = redis.TTLToken // ⭐ SSOT: 캐시 TTL과 동일
	}

	s.logger.WithFields(map[string]interface{}{
		"expires_in": tokenResp.ExpiresIn,
	}).Info("KIS access token refreshed")

	return tokenResp.AccessToken, s.now().Add(lifetime), nil
}

func (s *TokenSource) loadCached(ctx context.Context) (cachedToken, bool) {
	var cached cachedToken
	if s.cache == nil {
		return cached, false
	}

	found, err := s.cache.Get(ctx, redis.TokenKey("kis", s.cfg.AppKey), &cached)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read cached KIS token")
		return cached, false
	}
	if !found || cached.AccessToken == "" || !s.now().Before(cached.ExpiresAt) {
		return cached, false
	}
	return cached, true
}

func (s *TokenSource) storeCached(ctx context.Context, t cachedToken) {
	if s.cache == nil {
		return
	}

	ttl := t.ExpiresAt.Sub(s.now())
	if err := s.cache.Set(ctx, redis.TokenKey("kis", s.cfg.AppKey), t, ttl); err != nil {
		s.logger.WithError(err).Warn("Failed to cache KIS token")
	}
}
