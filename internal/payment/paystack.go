package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Paystack charges through the Paystack REST API using the token produced by
// the inline JS widget on the client.
type Paystack struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

var _ Gateway = (*Paystack)(nil)

func NewPaystack(baseURL, secretKey string) *Paystack {
	return &Paystack{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackChargeReq struct {
	Token     string `json:"token"`
	Amount    int64  `json:"amount"` // minor units
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

type paystackResp struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID              int64  `json:"id"`
		Reference       string `json:"reference"`
		Status          string `json:"status"`
		GatewayResponse string `json:"gateway_response"`
	} `json:"data"`
}

func (p *Paystack) Charge(ctx context.Context, token string, amountCents int64, currency, reference string) (string, error) {
	var out paystackResp
	if err := p.post(ctx, "/charge", paystackChargeReq{
		Token: token, Amount: amountCents, Currency: currency, Reference: reference,
	}, &out); err != nil {
		return "", err
	}
	if !out.Status || out.Data.Status != "success" {
		return "", &DeclinedError{Code: out.Data.Status, Reason: firstNonEmpty(out.Data.GatewayResponse, out.Message)}
	}
	return out.Data.Reference, nil
}

func (p *Paystack) Refund(ctx context.Context, chargeID string) (string, error) {
	var out paystackResp
	err := p.post(ctx, "/refund", map[string]string{"transaction": chargeID}, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	if !out.Status {
		return "", fmt.Errorf("%w: %s", ErrRefundFailed, out.Message)
	}
	return fmt.Sprintf("%d", out.Data.ID), nil
}

func (p *Paystack) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		// transport failures and timeouts are the retriable class
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: paystack returned %d", ErrNetwork, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
