package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/tapcard/internal/processor"
)

type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Client talks to the Stripe API over form-encoded HTTP. The whole loyalty
// flow runs on manual-capture PaymentIntents.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		secretKey: strings.TrimSpace(cfg.SecretKey),
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type stripeIntent struct {
	ID             string `json:"id"`
	ClientSecret   string `json:"client_secret"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PaymentMethod  string `json:"payment_method"`
	LatestCharge   string `json:"latest_charge"`
	AmountReceived int64  `json:"amount_received"`
}

type stripePaymentMethod struct {
	ID   string `json:"id"`
	Card struct {
		Fingerprint string `json:"fingerprint"`
		Brand       string `json:"brand"`
		Last4       string `json:"last4"`
		ExpMonth    int    `json:"exp_month"`
		ExpYear     int    `json:"exp_year"`
	} `json:"card"`
}

type stripeErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateAuthorization(ctx context.Context, amount int64, currency, description string) (*processor.Authorization, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(amount, 10))
	values.Set("currency", strings.ToLower(currency))
	values.Set("capture_method", "manual")
	values.Set("payment_method_types[]", "card")
	if description = strings.TrimSpace(description); description != "" {
		values.Set("description", description)
	}

	intent, err := c.doIntentRequest(ctx, http.MethodPost, "/v1/payment_intents", values, uuid.NewString())
	if err != nil {
		return nil, err
	}
	return authorizationFrom(intent), nil
}

func (c *Client) UpdateAuthorization(ctx context.Context, id string, amount int64) (*processor.Authorization, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(amount, 10))

	intent, err := c.doIntentRequest(ctx, http.MethodPost, "/v1/payment_intents/"+id, values, "")
	if err != nil {
		return nil, err
	}
	return authorizationFrom(intent), nil
}

func (c *Client) GetAuthorization(ctx context.Context, id string) (*processor.Authorization, error) {
	intent, err := c.doIntentRequest(ctx, http.MethodGet, "/v1/payment_intents/"+id, nil, "")
	if err != nil {
		return nil, err
	}
	return authorizationFrom(intent), nil
}

func (c *Client) CaptureAuthorization(ctx context.Context, id string, amountToCapture int64) (*processor.CaptureResult, error) {
	values := url.Values{}
	if amountToCapture > 0 {
		values.Set("amount_to_capture", strconv.FormatInt(amountToCapture, 10))
	}

	intent, err := c.doIntentRequest(ctx, http.MethodPost, "/v1/payment_intents/"+id+"/capture", values, "")
	if err != nil {
		return nil, err
	}

	captured := intent.AmountReceived
	if captured == 0 {
		captured = intent.Amount
	}
	return &processor.CaptureResult{
		ChargeID:        intent.LatestCharge,
		PaymentMethodID: intent.PaymentMethod,
		AmountCaptured:  captured,
	}, nil
}

func (c *Client) GetPaymentMethod(ctx context.Context, id string) (*processor.PaymentMethod, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v1/payment_methods/"+id, nil, "")
	if err != nil {
		return nil, err
	}

	var method stripePaymentMethod
	if err := json.Unmarshal(body, &method); err != nil {
		return nil, err
	}
	if method.ID == "" {
		return nil, &processor.UpstreamError{Provider: "stripe", Message: "payment method response invalid"}
	}
	return &processor.PaymentMethod{
		ID:          method.ID,
		Fingerprint: method.Card.Fingerprint,
		Brand:       method.Card.Brand,
		Last4:       method.Card.Last4,
		ExpMonth:    method.Card.ExpMonth,
		ExpYear:     method.Card.ExpYear,
	}, nil
}

func (c *Client) doIntentRequest(ctx context.Context, method, path string, values url.Values, idempotencyKey string) (*stripeIntent, error) {
	body, err := c.doRequest(ctx, method, path, values, idempotencyKey)
	if err != nil {
		return nil, err
	}

	var intent stripeIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, err
	}
	if intent.ID == "" {
		return nil, &processor.UpstreamError{Provider: "stripe", Message: "payment intent response invalid"}
	}
	return &intent, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, values url.Values, idempotencyKey string) ([]byte, error) {
	if c.secretKey == "" {
		return nil, processor.ErrNotConfigured
	}

	bodyReader := strings.NewReader("")
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &processor.UpstreamError{Provider: "stripe", Message: err.Error()}
	}
	defer resp.Body.Close()

	decoder := json.NewDecoder(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := decoder.Decode(&stripeErr); err != nil {
			return nil, &processor.UpstreamError{Provider: "stripe", Message: "request failed with status " + strconv.Itoa(resp.StatusCode)}
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "request failed with status " + strconv.Itoa(resp.StatusCode)
		}
		return nil, &processor.UpstreamError{
			Provider: "stripe",
			Code:     strings.TrimSpace(stripeErr.Error.Code),
			Message:  message,
		}
	}

	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func authorizationFrom(intent *stripeIntent) *processor.Authorization {
	return &processor.Authorization{
		ID:              intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        strings.ToUpper(intent.Currency),
		Status:          intent.Status,
		PaymentMethodID: intent.PaymentMethod,
	}
}
