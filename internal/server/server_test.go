package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywheel/keywheel/internal/keystore"
	"github.com/keywheel/keywheel/internal/signer"
)

func newTestServer(t *testing.T) (*httptest.Server, *keystore.Store) {
	t.Helper()

	store := keystore.New()

	log := logrus.New()
	log.SetOutput(io.Discard)

	sgn := signer.New(signer.Config{
		IssuerURL: "https://keywheel.test",
		TTL:       5 * time.Minute,
		Store:     store,
	})

	srv := New(Config{
		Store:  store,
		Signer: sgn,
		Logger: log,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestServer_JWKS(t *testing.T) {
	ts, store := newTestServer(t)

	rec, err := store.Generate(context.Background(), keystore.ES256)
	require.NoError(t, err)

	for _, path := range []string{"/.well-known/jwks.json", "/v1/jwks.json"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		body := decodeJSON(t, resp)
		resp.Body.Close()

		keys, ok := body["keys"].([]any)
		require.True(t, ok)
		require.Len(t, keys, 1)

		key := keys[0].(map[string]any)
		assert.Equal(t, rec.KeyID, key["kid"])
		assert.Equal(t, "ES256", key["alg"])
		assert.NotContains(t, key, "d")
	}
}

func TestServer_JWKSEmptyStore(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/.well-known/jwks.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Empty(t, body["keys"])
}

func TestServer_GenerateKey(t *testing.T) {
	ts, store := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/keys", map[string]any{"alg": "RS256"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, "RS256", body["alg"])
	assert.NotEmpty(t, body["kid"])
	assert.Equal(t, 1, store.Len())
}

func TestServer_GenerateKeyUnsupportedAlgorithm(t *testing.T) {
	ts, store := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/keys", map[string]any{"alg": "HS256"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, store.Len())
}

func TestServer_GenerateKeyBadBody(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/keys", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_IssueToken(t *testing.T) {
	ts, store := newTestServer(t)

	_, err := store.Generate(context.Background(), keystore.ES256)
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+"/v1/token", map[string]any{
		"subject":  "alice",
		"audience": []string{"service-a"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	tokenValue, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, tokenValue)

	// The token must verify against the server's own published key set
	jwksResp, err := http.Get(ts.URL + "/.well-known/jwks.json")
	require.NoError(t, err)
	defer jwksResp.Body.Close()

	doc, err := io.ReadAll(jwksResp.Body)
	require.NoError(t, err)

	set, err := jwk.Parse(doc)
	require.NoError(t, err)

	parsed, err := jwt.Parse([]byte(tokenValue), jwt.WithKeySet(set))
	require.NoError(t, err)
	assert.Equal(t, "alice", parsed.Subject())
	assert.Equal(t, "https://keywheel.test", parsed.Issuer())
}

func TestServer_IssueTokenEmptyStore(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/token", map[string]any{"subject": "alice"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	ts, store := newTestServer(t)

	_, err := store.Generate(context.Background(), keystore.ES256)
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["keys"])
}
