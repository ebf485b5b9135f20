package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kmutua/feedback-gateway/internal/model"
)

type Provider interface {
	Name() string
	Ready() bool
	Acquire() bool
	Send(ctx context.Context, sms model.SMS) error
}

// HTTPProvider posts the SMS as JSON to an external messaging service.
// A MicroBreaker shields a flapping provider from repeated traffic.
type HTTPProvider struct {
	name     string
	baseURL  string
	sendPath string
	apiToken string
	client   *http.Client
	br       *MicroBreaker
}

func NewHTTPProvider(
	name, baseURL, sendPath, apiToken string,
	timeoutMs, failThreshold, openForMs int,
) *HTTPProvider {
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}

	if failThreshold <= 0 {
		failThreshold = 3
	}

	if openForMs <= 0 {
		openForMs = 15000
	}

	return &HTTPProvider{
		name:     name,
		baseURL:  baseURL,
		sendPath: sendPath,
		apiToken: apiToken,
		client:   &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:       NewMicroBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
	}
}

func (p *HTTPProvider) Name() string  { return p.name }
func (p *HTTPProvider) Ready() bool   { return p.br.Ready() }
func (p *HTTPProvider) Acquire() bool { return p.br.TryAcquire() }

func (p *HTTPProvider) Send(ctx context.Context, sms model.SMS) error {
	if err := p.post(ctx, sms); err != nil {
		p.br.OnFailure()
		return err
	}

	p.br.OnSuccess()

	return nil
}

func (p *HTTPProvider) post(ctx context.Context, sms model.SMS) error {
	b, _ := json.Marshal(sms)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+p.sendPath, bytes.NewReader(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiToken)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return err
	}

	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("provider=%s status=%d", p.name, res.StatusCode)
	}

	return nil
}
