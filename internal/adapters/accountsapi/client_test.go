package accountsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bnema/subaccount-pool/internal/domain"
	"github.com/bnema/subaccount-pool/internal/ports"
	"github.com/bnema/subaccount-pool/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var testCreds = domain.Credentials{APIKey: "P1", Secret: "primary-secret"}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
	elapsed  []time.Duration
}

func (o *recordingObserver) ObserveRemoteRequest(op string, outcome string, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, op+"="+outcome)
	o.elapsed = append(o.elapsed, elapsed)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *recordingObserver) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	observer := &recordingObserver{}
	return Client{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Limiter:    rate.NewLimiter(rate.Inf, 1),
		Observer:   observer,
	}, observer
}

func assertBasicAuth(t *testing.T, r *http.Request) {
	t.Helper()

	user, pass, ok := r.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "P1", user)
	assert.Equal(t, "primary-secret", pass)
}

func TestCreateSubaccountWithSignatureRequestsSensitiveData(t *testing.T) {
	t.Parallel()

	client, observer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertBasicAuth(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts/P1/subaccounts", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("sensitive-data"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "Bot-1", "secret": "Abcdef12"}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"api_key":"S1","secret":"Abcdef12","signature_secret":"sig-1","primary_account_api_key":"P1",
			"use_primary_account_balance":true,"name":"Bot-1","balance":0,"credit_limit":0,"suspended":false,
			"created_at":"2026-03-01T09:00:00Z"}`))
	})

	got, err := client.CreateSubaccount(context.Background(), testCreds, ports.CreateSubaccountRequest{
		Name: "Bot-1", Secret: "Abcdef12", WithSignature: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Subaccount{
		APIKey:                   "S1",
		PrimaryAccountAPIKey:     "P1",
		Secret:                   "Abcdef12",
		SignatureSecret:          "sig-1",
		Name:                     "Bot-1",
		UsePrimaryAccountBalance: true,
		CreatedAt:                time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, got)
	assert.Equal(t, []string{"create subaccount=ok"}, observer.outcomes)
}

func TestCreateSubaccountPlainOmitsSensitiveData(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"api_key":"S2","name":"plain"}`))
	})

	got, err := client.CreateSubaccount(context.Background(), testCreds, ports.CreateSubaccountRequest{Name: "plain", Secret: "Abcdef12"})
	require.NoError(t, err)
	assert.Equal(t, "S2", got.APIKey)
	assert.Empty(t, got.SignatureSecret)
}

func TestModifySubaccountSendsPatch(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/accounts/P1/subaccounts/S1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"name": "Bot-2", "suspended": true}, body)

		_, _ = w.Write([]byte(`{"api_key":"S1","name":"Bot-2","suspended":true,"primary_account_api_key":"P1"}`))
	})

	got, err := client.ModifySubaccount(context.Background(), testCreds, "S1", ports.ModifySubaccountRequest{Name: "Bot-2", Suspended: true})
	require.NoError(t, err)
	assert.True(t, got.Suspended)
	assert.Equal(t, "Bot-2", got.Name)
}

func TestModifySubaccountStaleVersionIsStatusError(t *testing.T) {
	t.Parallel()

	client, observer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"type":"https://developer.nexmo.com/api-errors#invalid-version","title":"Invalid version","detail":"The account was modified concurrently"}`))
	})

	_, err := client.ModifySubaccount(context.Background(), testCreds, "S1", ports.ModifySubaccountRequest{Name: "Bot-2"})
	var statusErr *ports.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
	assert.Equal(t, "Invalid version", statusErr.Title)
	assert.Contains(t, err.Error(), "modified concurrently")
	assert.Equal(t, []string{"modify subaccount=rejected"}, observer.outcomes)
}

func TestListSecretsParsesEmbeddedList(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertBasicAuth(t, r)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/accounts/S1/secrets", r.URL.Path)
		_, _ = w.Write([]byte(`{"_links":{"self":{"href":"/accounts/S1/secrets"}},"_embedded":{"secrets":[
			{"id":"sec-new","created_at":"2026-03-02T09:00:00Z"},
			{"id":"sec-old","created_at":"2026-03-01T09:00:00Z"}]}}`))
	})

	got, err := client.ListSecrets(context.Background(), testCreds, "S1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Secret{
		{ID: "sec-new", CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		{ID: "sec-old", CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}, got)
}

func TestListSecretsEmptyEmbedded(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_embedded":{"secrets":[]}}`))
	})

	got, err := client.ListSecrets(context.Background(), testCreds, "S1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateSecretLimitReached(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/S1/secrets", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"title":"Secret limit reached","detail":"Account already has two secrets"}`))
	})

	_, err := client.CreateSecret(context.Background(), testCreds, "S1", "Abcdef12")
	var statusErr *ports.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
}

func TestCreateSecretReturnsCreatedSecret(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Abcdef12", body["secret"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"sec-3","created_at":"2026-03-03T09:00:00Z"}`))
	})

	got, err := client.CreateSecret(context.Background(), testCreds, "S1", "Abcdef12")
	require.NoError(t, err)
	assert.Equal(t, "sec-3", got.ID)
}

func TestRevokeSecretNoContent(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/accounts/S1/secrets/sec-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.RevokeSecret(context.Background(), testCreds, "S1", "sec-1"))
}

func TestRevokeSecretNotFoundWithoutProblemBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.RevokeSecret(context.Background(), testCreds, "S1", "missing")
	var statusErr *ports.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, "revoke secret: status 404", err.Error())
}

func TestTransportFailureIsTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	observer := &recordingObserver{}
	client := Client{BaseURL: baseURL, Observer: observer}

	_, err := client.GetSubaccount(context.Background(), testCreds, "S1")
	var transportErr *ports.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, []string{"retrieve subaccount=unavailable"}, observer.outcomes)
}

func TestUndecodableSuccessBodyIsTransportError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/accounts/P1/subaccounts":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`<html>created</html>`))
		case "/accounts/P1/subaccounts/S1":
			_, _ = w.Write([]byte(`{"name":"Bot-1"}`))
		case "/accounts/S1/secrets":
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusCreated)
			}
			_, _ = w.Write([]byte(`{truncated`))
		}
	})
	ctx := context.Background()

	var transportErr *ports.TransportError

	_, err := client.CreateSubaccount(ctx, testCreds, ports.CreateSubaccountRequest{Name: "Bot-1", Secret: "Abcdef12"})
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "create subaccount", transportErr.Op)

	_, err = client.GetSubaccount(ctx, testCreds, "S1")
	require.True(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "missing api_key")

	_, err = client.ListSecrets(ctx, testCreds, "S1")
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "list secrets", transportErr.Op)

	_, err = client.CreateSecret(ctx, testCreds, "S1", "Abcdef12")
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "create secret", transportErr.Op)
}

func TestRequestTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"api_key":"S1"}`))
	})
	client.RequestTimeout = 10 * time.Millisecond

	_, err := client.GetSubaccount(context.Background(), testCreds, "S1")
	var transportErr *ports.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvalidBaseURLIsRequestError(t *testing.T) {
	t.Parallel()

	client := Client{BaseURL: "ftp://api.example.com"}

	_, err := client.ListSecrets(context.Background(), testCreds, "S1")
	var requestErr *ports.RequestError
	require.True(t, errors.As(err, &requestErr))
	assert.ErrorContains(t, err, "must use http or https")
}

func TestMissingCredentialsIsRequestError(t *testing.T) {
	t.Parallel()

	client := Client{BaseURL: "https://api.example.com"}

	err := client.RevokeSecret(context.Background(), domain.Credentials{APIKey: "P1"}, "S1", "sec-1")
	var requestErr *ports.RequestError
	require.True(t, errors.As(err, &requestErr))
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestObserverReceivesElapsedFromClock(t *testing.T) {
	t.Parallel()

	client, observer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"api_key":"S1"}`))
	})

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(start).Once()
	clock.EXPECT().Now().Return(start.Add(1500 * time.Millisecond)).Once()
	client.Clock = clock

	_, err := client.GetSubaccount(context.Background(), testCreds, "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"retrieve subaccount=ok"}, observer.outcomes)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, observer.elapsed)
}
