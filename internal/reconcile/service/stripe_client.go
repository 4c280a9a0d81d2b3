package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/linkwell/orderdesk/internal/reconcile/domain"
)

type stripePaymentIntent struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type stripeCheckoutSession struct {
	ID            string `json:"id"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	PaymentIntent string `json:"payment_intent"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type stripeClient struct {
	apiKey string
	client *http.Client
}

func newStripeClient(apiKey string) *stripeClient {
	return &stripeClient{
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *stripeClient) retrievePaymentIntent(ctx context.Context, intentID string) (stripePaymentIntent, error) {
	var intent stripePaymentIntent
	if err := c.doRequest(ctx, "/v1/payment_intents/"+intentID, &intent); err != nil {
		return stripePaymentIntent{}, err
	}
	if intent.ID == "" {
		return stripePaymentIntent{}, errors.New("stripe_response_invalid")
	}
	return intent, nil
}

func (c *stripeClient) retrieveCheckoutSession(ctx context.Context, sessionID string) (stripeCheckoutSession, error) {
	var session stripeCheckoutSession
	if err := c.doRequest(ctx, "/v1/checkout/sessions/"+sessionID, &session); err != nil {
		return stripeCheckoutSession{}, err
	}
	if session.ID == "" {
		return stripeCheckoutSession{}, errors.New("stripe_response_invalid")
	}
	return session, nil
}

func (c *stripeClient) doRequest(ctx context.Context, path string, out any) error {
	if c.apiKey == "" {
		return domain.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.stripe.com"+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
