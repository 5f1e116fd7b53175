package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Flutterwave is the alternative provider behind the same Gateway contract.
type Flutterwave struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

var _ Gateway = (*Flutterwave)(nil)

func NewFlutterwave(baseURL, secretKey string) *Flutterwave {
	return &Flutterwave{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

type flwChargeReq struct {
	Token    string `json:"token"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	TxRef    string `json:"tx_ref"` // idempotency reference
}

type flwResp struct {
	Status  string `json:"status"` // "success" | "error"
	Message string `json:"message"`
	Data    struct {
		ID     int64  `json:"id"`
		Status string `json:"status"` // "successful" | "failed"
		TxRef  string `json:"tx_ref"`
	} `json:"data"`
}

func (f *Flutterwave) Charge(ctx context.Context, token string, amountCents int64, currency, reference string) (string, error) {
	var out flwResp
	if err := f.post(ctx, "/tokenized-charges", flwChargeReq{
		Token: token, Amount: amountCents, Currency: currency, TxRef: reference,
	}, &out); err != nil {
		return "", err
	}
	if out.Status != "success" || out.Data.Status != "successful" {
		return "", &DeclinedError{Code: out.Data.Status, Reason: out.Message}
	}
	return fmt.Sprintf("%d", out.Data.ID), nil
}

func (f *Flutterwave) Refund(ctx context.Context, chargeID string) (string, error) {
	var out flwResp
	err := f.post(ctx, "/transactions/"+chargeID+"/refund", map[string]any{}, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	if out.Status != "success" {
		return "", fmt.Errorf("%w: %s", ErrRefundFailed, out.Message)
	}
	return fmt.Sprintf("%d", out.Data.ID), nil
}

func (f *Flutterwave) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+f.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: flutterwave returned %d", ErrNetwork, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
