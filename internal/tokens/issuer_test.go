package tokens

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avavoice/ava/internal/config"
)

func testIssuer() *Issuer {
	return NewIssuer(&config.Config{
		LiveKitAPIKey:    "APIkey123",
		LiveKitAPISecret: "secret456secret456secret456secret",
		RoomName:         "demo-room",
	})
}

func parseToken(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		return []byte("secret456secret456secret456secret"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestMintGrantsAndTTL(t *testing.T) {
	issuer := testIssuer()

	token, err := issuer.Mint("alice", "demo-room")
	require.NoError(t, err)

	claims := parseToken(t, token)
	assert.Equal(t, "APIkey123", claims["iss"])
	assert.Equal(t, "alice", claims["sub"])

	video, ok := claims["video"].(map[string]any)
	require.True(t, ok, "missing video grant")
	assert.Equal(t, true, video["roomJoin"])
	assert.Equal(t, "demo-room", video["room"])
	assert.Equal(t, true, video["canPublish"])
	assert.Equal(t, true, video["canSubscribe"])
	assert.Equal(t, true, video["canPublishData"])

	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	ttl := time.Until(time.Unix(int64(exp), 0))
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 60)
}

func TestTokenEndpoint(t *testing.T) {
	srv := httptest.NewServer(testIssuer().Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"identity": "bob", "room": "kitchen"})
	resp, err := http.Post(srv.URL+"/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
		Room  string `json:"room"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "kitchen", out.Room)

	claims := parseToken(t, out.Token)
	assert.Equal(t, "bob", claims["sub"])
}

func TestTokenEndpointDefaults(t *testing.T) {
	srv := httptest.NewServer(testIssuer().Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/token", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
		Room  string `json:"room"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "demo-room", out.Room)

	claims := parseToken(t, out.Token)
	assert.Equal(t, "ios-user", claims["sub"])
}
