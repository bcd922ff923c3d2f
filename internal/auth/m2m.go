package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// M2MTokenSource hands out a client-credentials token for calls to sibling
// services, fetching a new one from Keycloak when the cached one is near expiry.
type M2MTokenSource struct {
	cfg    models.M2MConfig
	client *http.Client
	cache  TokenCache
	log    *logger.Logger
	now    func() time.Time
}

func NewM2MTokenSource(cfg models.M2MConfig, client *http.Client, cache TokenCache, log *logger.Logger) *M2MTokenSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	return &M2MTokenSource{cfg: cfg, client: client, cache: cache, log: log, now: time.Now}
}

func (s *M2MTokenSource) Token(ctx context.Context) (string, error) {
	cached, err := s.cache.Get(ctx)
	if err != nil {
		s.log.Warn("AUTH", fmt.Sprintf("Token cache read failed: %v", err))
	} else if cached.IsValid(s.now()) {
		return cached.Token, nil
	}

	resp, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}

	expiresAt, err := ExtractExpiry(resp.AccessToken)
	if err != nil {
		expiresAt = s.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	if err := s.cache.Set(ctx, CachedToken{Token: resp.AccessToken, ExpiresAt: expiresAt}); err != nil {
		s.log.Warn("AUTH", fmt.Sprintf("Token cache write failed: %v", err))
	}
	return resp.AccessToken, nil
}

func (s *M2MTokenSource) fetch(ctx context.Context) (*models.TokenResponse, error) {
	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", s.cfg.KeycloakURL, s.cfg.KeycloakRealm)
	s.log.Debug("AUTH", fmt.Sprintf("Requesting M2M token from %s for client %s", tokenURL, s.cfg.ClientID))

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", s.cfg.ClientID)
	data.Set("client_secret", s.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		s.log.Error("AUTH", fmt.Sprintf("Keycloak token response %s: %s", resp.Status, string(bodyBytes)))
		return nil, fmt.Errorf("failed to get token, status: %s", resp.Status)
	}

	var tokenResp models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response carried no access_token")
	}
	return &tokenResp, nil
}
