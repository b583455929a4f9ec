package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestNewAuthenticator_InvalidKey(t *testing.T) {
	_, err := NewAuthenticator(AuthConfig{JWTPublicKey: "not a pem"})
	assert.Error(t, err)
}

func TestNewAuthenticator_PKCS1(t *testing.T) {
	key, _ := generateKey(t)
	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)})

	a, err := NewAuthenticator(AuthConfig{JWTPublicKey: string(pkcs1)})
	require.NoError(t, err)

	token := signToken(t, key, jwt.RegisteredClaims{Subject: "ops"})
	assert.True(t, a.Authenticate("Bearer "+token).Success)
}

func TestAuthenticate(t *testing.T) {
	key, publicPEM := generateKey(t)
	otherKey, _ := generateKey(t)

	a, err := NewAuthenticator(AuthConfig{JWTPublicKey: publicPEM, APIKeys: []string{"k1", "", "k2"}})
	require.NoError(t, err)

	valid := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signToken(t, key, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	notYet := signToken(t, key, jwt.RegisteredClaims{
		NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	foreign := signToken(t, otherKey, jwt.RegisteredClaims{Subject: "ops"})
	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		wantSuccess bool
		wantType    string
		wantSubject string
	}{
		{name: "missing header", header: ""},
		{name: "no credentials", header: "Bearer"},
		{name: "unsupported scheme", header: "Basic abc"},
		{name: "valid api key", header: "ApiKey k2", wantSuccess: true, wantType: AuthTypeAPIKey},
		{name: "scheme is case insensitive", header: "apikey k1", wantSuccess: true, wantType: AuthTypeAPIKey},
		{name: "unknown api key", header: "ApiKey k3"},
		{name: "valid jwt", header: "Bearer " + valid, wantSuccess: true, wantType: AuthTypeJWT, wantSubject: "ops"},
		{name: "expired jwt", header: "Bearer " + expired},
		{name: "jwt not yet valid", header: "Bearer " + notYet},
		{name: "jwt signed by another key", header: "Bearer " + foreign},
		{name: "hmac jwt", header: "Bearer " + hmac},
		{name: "garbage jwt", header: "Bearer abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Authenticate(tt.header)
			assert.Equal(t, tt.wantSuccess, result.Success)
			if !tt.wantSuccess {
				assert.Error(t, result.Error)
				return
			}
			assert.NoError(t, result.Error)
			assert.Equal(t, tt.wantType, result.AuthType)
			assert.Equal(t, tt.wantSubject, result.AuthSubject)
		})
	}
}

func TestAuthenticate_NothingConfigured(t *testing.T) {
	a, err := NewAuthenticator(AuthConfig{})
	require.NoError(t, err)

	result := a.Authenticate("ApiKey k1")
	assert.False(t, result.Success)
	assert.EqualError(t, result.Error, "no API keys configured")

	result = a.Authenticate("Bearer abc")
	assert.False(t, result.Success)
	assert.EqualError(t, result.Error, "JWT public key not configured")
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	key, publicPEM := generateKey(t)
	a, err := NewAuthenticator(AuthConfig{JWTPublicKey: publicPEM})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", Auth(a), func(c *gin.Context) {
		c.String(http.StatusOK, "%s:%s", c.GetString(string(AUTH_TYPE_KEY)), c.GetString(string(AUTH_SUBJECT_KEY)))
	})

	t.Run("rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing Authorization header")
	})

	t.Run("accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, key, jwt.RegisteredClaims{Subject: "ops"}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "jwt:ops", w.Body.String())
	})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 26)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery())
	router.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
