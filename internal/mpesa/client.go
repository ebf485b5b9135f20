package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kmutua/feedback-gateway/internal/config"
	"github.com/kmutua/feedback-gateway/internal/logger"
	"go.uber.org/zap"
)

const (
	oauthPath       = "/oauth/v1/generate?grant_type=client_credentials"
	registerURLPath = "/mpesa/c2b/v1/registerurl"
)

// Client talks to the Daraja API: credential exchange and the one-time
// C2B callback URL registration. Both are plain request/response calls,
// no protocol state.
type Client struct {
	baseURL         string
	consumerKey     string
	consumerSecret  string
	shortCode       string
	confirmationURL string
	validationURL   string
	tokenTTL        time.Duration
	client          *http.Client
	cache           TokenCache
}

// NewClient builds a Client from config. cache may be nil; tokens are
// then fetched fresh on every call.
func NewClient(cfg config.MpesaConfig, cache TokenCache) *Client {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 55 * time.Minute
	}
	return &Client{
		baseURL:         cfg.BaseURL,
		consumerKey:     cfg.ConsumerKey,
		consumerSecret:  cfg.ConsumerSecret,
		shortCode:       cfg.ShortCode,
		confirmationURL: cfg.ConfirmationURL,
		validationURL:   cfg.ValidationURL,
		tokenTTL:        ttl,
		client:          &http.Client{Timeout: timeout},
		cache:           cache,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Authenticate exchanges the consumer key/secret for a bearer token.
// Cached tokens are reused until their TTL lapses.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if c.consumerKey == "" || c.consumerSecret == "" {
		return "", fmt.Errorf("mpesa credentials not configured")
	}

	if c.cache != nil {
		if tok, err := c.cache.Get(ctx); err == nil && tok != "" {
			return tok, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+oauthPath, nil)
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa oauth: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("mpesa oauth: status=%d", res.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("mpesa oauth decode: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("mpesa oauth: empty access_token")
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, tr.AccessToken, c.tokenTTL); err != nil {
			logger.Log.Warn("mpesa token cache set failed", zap.Error(err))
		}
	}

	return tr.AccessToken, nil
}

type registerURLRequest struct {
	ShortCode       string `json:"ShortCode"`
	ResponseType    string `json:"ResponseType"`
	ConfirmationURL string `json:"ConfirmationURL"`
	ValidationURL   string `json:"ValidationURL"`
}

// RegisterURLs registers the confirmation and validation callbacks for
// the short code. ResponseType "Completed" means unanswered validation
// requests default to accepting the transaction.
func (c *Client) RegisterURLs(ctx context.Context) error {
	if c.shortCode == "" || c.confirmationURL == "" {
		return fmt.Errorf("mpesa short code or confirmation URL not configured")
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	body, _ := json.Marshal(registerURLRequest{
		ShortCode:       c.shortCode,
		ResponseType:    "Completed",
		ConfirmationURL: c.confirmationURL,
		ValidationURL:   c.validationURL,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+registerURLPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("mpesa register url: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("mpesa register url: status=%d", res.StatusCode)
	}

	logger.Log.Info("mpesa callback urls registered",
		zap.String("short_code", c.shortCode),
		zap.String("confirmation_url", c.confirmationURL),
	)

	return nil
}
