package accountsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.nexmo.com"
	maxResponseBytes    = 1 << 20
	defaultTimeout      = 30 * time.Second
	sensitiveDataQuery  = "sensitive-data"
	outcomeOK           = "ok"
	outcomeRejected     = "rejected"
	outcomeUnavailable  = "unavailable"
	outcomeInvalid      = "invalid"
	contentTypeJSON     = "application/json"
	problemDetailPath   = "detail"
	problemTitlePath    = "title"
	problemTypePath     = "type"
	embeddedSecretsPath = "_embedded.secrets"
)

// Observer receives one outcome per remote call.
type Observer interface {
	ObserveRemoteRequest(op string, outcome string, elapsed time.Duration)
}

// Client talks to the remote account-management API with HTTP Basic auth
// using the primary credentials of each call.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Limiter        *rate.Limiter
	Observer       Observer
	Clock          ports.Clock
}

var _ ports.AccountsAPI = Client{}

type subaccountPayload struct {
	APIKey                   string  `json:"api_key"`
	Secret                   string  `json:"secret"`
	SignatureSecret          string  `json:"signature_secret"`
	PrimaryAccountAPIKey     string  `json:"primary_account_api_key"`
	UsePrimaryAccountBalance bool    `json:"use_primary_account_balance"`
	Name                     string  `json:"name"`
	Balance                  float64 `json:"balance"`
	CreditLimit              float64 `json:"credit_limit"`
	Suspended                bool    `json:"suspended"`
	CreatedAt                string  `json:"created_at"`
}

type createSubaccountBody struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type modifySubaccountBody struct {
	Suspended bool   `json:"suspended"`
	Name      string `json:"name,omitempty"`
}

type createSecretBody struct {
	Secret string `json:"secret"`
}

type secretPayload struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

func (c Client) CreateSubaccount(ctx context.Context, creds domain.Credentials, req ports.CreateSubaccountRequest) (domain.Subaccount, error) {
	const op = "create subaccount"

	var query url.Values
	if req.WithSignature {
		query = url.Values{sensitiveDataQuery: []string{"true"}}
	}

	path := "/accounts/" + url.PathEscape(creds.APIKey) + "/subaccounts"
	body, err := c.do(ctx, op, creds, http.MethodPost, path, query, createSubaccountBody{Name: req.Name, Secret: req.Secret})
	if err != nil {
		return domain.Subaccount{}, err
	}

	return decodeSubaccount(op, body)
}

func (c Client) GetSubaccount(ctx context.Context, creds domain.Credentials, subaccountKey string) (domain.Subaccount, error) {
	const op = "retrieve subaccount"

	path := "/accounts/" + url.PathEscape(creds.APIKey) + "/subaccounts/" + url.PathEscape(subaccountKey)
	body, err := c.do(ctx, op, creds, http.MethodGet, path, nil, nil)
	if err != nil {
		return domain.Subaccount{}, err
	}

	return decodeSubaccount(op, body)
}

func (c Client) ModifySubaccount(ctx context.Context, creds domain.Credentials, subaccountKey string, req ports.ModifySubaccountRequest) (domain.Subaccount, error) {
	const op = "modify subaccount"

	path := "/accounts/" + url.PathEscape(creds.APIKey) + "/subaccounts/" + url.PathEscape(subaccountKey)
	body, err := c.do(ctx, op, creds, http.MethodPatch, path, nil, modifySubaccountBody{Suspended: req.Suspended, Name: req.Name})
	if err != nil {
		return domain.Subaccount{}, err
	}

	return decodeSubaccount(op, body)
}

func (c Client) CreateSecret(ctx context.Context, creds domain.Credentials, subaccountKey string, secret string) (domain.Secret, error) {
	const op = "create secret"

	path := "/accounts/" + url.PathEscape(subaccountKey) + "/secrets"
	body, err := c.do(ctx, op, creds, http.MethodPost, path, nil, createSecretBody{Secret: secret})
	if err != nil {
		return domain.Secret{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Secret{}, nil
	}

	var payload secretPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Secret{}, &ports.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return domain.Secret{ID: payload.ID, CreatedAt: parseTime(payload.CreatedAt)}, nil
}

// ListSecrets returns the secrets in response order. Callers sort by
// creation time when order matters.
func (c Client) ListSecrets(ctx context.Context, creds domain.Credentials, subaccountKey string) ([]domain.Secret, error) {
	const op = "list secrets"

	path := "/accounts/" + url.PathEscape(subaccountKey) + "/secrets"
	body, err := c.do(ctx, op, creds, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, &ports.TransportError{Op: op, Err: errors.New("response is not valid JSON")}
	}

	results := gjson.GetBytes(body, embeddedSecretsPath).Array()
	secrets := make([]domain.Secret, 0, len(results))
	for _, result := range results {
		secrets = append(secrets, domain.Secret{
			ID:        result.Get("id").String(),
			CreatedAt: parseTime(result.Get("created_at").String()),
		})
	}

	return secrets, nil
}

func (c Client) RevokeSecret(ctx context.Context, creds domain.Credentials, subaccountKey string, secretID string) error {
	const op = "revoke secret"

	path := "/accounts/" + url.PathEscape(subaccountKey) + "/secrets/" + url.PathEscape(secretID)
	_, err := c.do(ctx, op, creds, http.MethodDelete, path, nil, nil)
	return err
}

func (c Client) clock() ports.Clock {
	if c.Clock == nil {
		return ports.SystemClock{}
	}
	return c.Clock
}

func (c Client) do(ctx context.Context, op string, creds domain.Credentials, method string, path string, query url.Values, payload any) (respBody []byte, err error) {
	clock := c.clock()
	started := clock.Now()
	defer func() {
		c.observe(op, outcomeFor(err), clock.Now().Sub(started))
	}()

	if err := creds.Validate(); err != nil {
		return nil, &ports.RequestError{Op: op, Err: err}
	}

	endpoint, err := buildAPIURL(c.baseURL(), path, query)
	if err != nil {
		return nil, &ports.RequestError{Op: op, Err: err}
	}

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, &ports.RequestError{Op: op, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return nil, &ports.RequestError{Op: op, Err: err}
	}
	req.SetBasicAuth(creds.APIKey, creds.Secret)
	req.Header.Set("Accept", contentTypeJSON)
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(requestCtx); err != nil {
			return nil, &ports.TransportError{Op: op, Err: fmt.Errorf("wait for rate limiter: %w", err)}
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &ports.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ports.TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, decodeProblem(op, resp.StatusCode, body)
	}

	return body, nil
}

func (c Client) observe(op string, outcome string, elapsed time.Duration) {
	if c.Observer == nil {
		return
	}
	c.Observer.ObserveRemoteRequest(op, outcome, elapsed)
}

func (c Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func outcomeFor(err error) string {
	var (
		statusErr    *ports.StatusError
		transportErr *ports.TransportError
		requestErr   *ports.RequestError
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &statusErr):
		return outcomeRejected
	case errors.As(err, &transportErr):
		return outcomeUnavailable
	case errors.As(err, &requestErr):
		return outcomeInvalid
	default:
		return outcomeInvalid
	}
}

func decodeProblem(op string, status int, body []byte) *ports.StatusError {
	statusErr := &ports.StatusError{Op: op, Status: status}
	if !gjson.ValidBytes(body) {
		return statusErr
	}

	statusErr.Type = gjson.GetBytes(body, problemTypePath).String()
	statusErr.Title = gjson.GetBytes(body, problemTitlePath).String()
	statusErr.Detail = gjson.GetBytes(body, problemDetailPath).String()
	return statusErr
}

func decodeSubaccount(op string, body []byte) (domain.Subaccount, error) {
	var payload subaccountPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.Subaccount{}, &ports.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.APIKey == "" {
		return domain.Subaccount{}, &ports.TransportError{Op: op, Err: errors.New("response missing api_key")}
	}

	return domain.Subaccount{
		APIKey:                   payload.APIKey,
		PrimaryAccountAPIKey:     payload.PrimaryAccountAPIKey,
		Secret:                   payload.Secret,
		SignatureSecret:          payload.SignatureSecret,
		Name:                     payload.Name,
		Suspended:                payload.Suspended,
		Balance:                  payload.Balance,
		CreditLimit:              payload.CreditLimit,
		UsePrimaryAccountBalance: payload.UsePrimaryAccountBalance,
		CreatedAt:                parseTime(payload.CreatedAt),
	}, nil
}

func buildAPIURL(baseURL string, path string, query url.Values) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	return endpoint.String(), nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}
