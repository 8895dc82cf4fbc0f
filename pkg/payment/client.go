package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eventshow/eventshow/config"
	"github.com/google/uuid"
)

// Provider is the card-payment contract used by enrollment and settlement flows.
type Provider interface {
	Charge(ctx context.Context, customerID string, amountCents int64, description string) (string, error)
	Refund(ctx context.Context, chargeID string) error
	Payout(ctx context.Context, accountID string, amountCents int64, description string) (string, error)
}

// Client talks to the payment provider's REST API.
type Client struct {
	secretKey  string
	baseURL    string
	currency   string
	httpClient *http.Client
}

func NewClient(cfg *config.PaymentConfig) *Client {
	return &Client{
		secretKey: cfg.SecretKey,
		baseURL:   cfg.BaseURL,
		currency:  cfg.Currency,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type apiObject struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Charge bills a stored customer and returns the provider charge ID.
func (c *Client) Charge(ctx context.Context, customerID string, amountCents int64, description string) (string, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amountCents, 10))
	params.Set("currency", c.currency)
	params.Set("customer", customerID)
	params.Set("description", description)

	obj, err := c.post(ctx, "/charges", params)
	if err != nil {
		return "", err
	}
	return obj.ID, nil
}

// Refund reverses a charge in full.
func (c *Client) Refund(ctx context.Context, chargeID string) error {
	params := url.Values{}
	params.Set("charge", chargeID)

	_, err := c.post(ctx, "/refunds", params)
	return err
}

// Payout transfers funds to a host's connected account.
func (c *Client) Payout(ctx context.Context, accountID string, amountCents int64, description string) (string, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amountCents, 10))
	params.Set("currency", c.currency)
	params.Set("destination", accountID)
	params.Set("description", description)

	obj, err := c.post(ctx, "/transfers", params)
	if err != nil {
		return "", err
	}
	return obj.ID, nil
}

func (c *Client) post(ctx context.Context, path string, params url.Values) (*apiObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment API request failed: %w", err)
	}
	defer resp.Body.Close()

	var obj apiObject
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, fmt.Errorf("payment API returned invalid response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if obj.Error != nil {
			msg = obj.Error.Message
		}
		return nil, fmt.Errorf("payment API error: %s", msg)
	}

	return &obj, nil
}

// FakeProvider approves every operation, used when payments are disabled.
type FakeProvider struct{}

func (FakeProvider) Charge(ctx context.Context, customerID string, amountCents int64, description string) (string, error) {
	return "fake_ch_" + uuid.NewString(), nil
}

func (FakeProvider) Refund(ctx context.Context, chargeID string) error { return nil }

func (FakeProvider) Payout(ctx context.Context, accountID string, amountCents int64, description string) (string, error) {
	return "fake_tr_" + uuid.NewString(), nil
}
