package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHS256RoundTrip(t *testing.T) {
	token, err := SignHS256("patient-1", RolePatient, time.Hour, "test-secret")
	require.NoError(t, err)

	actor, err := ParseAndVerifyHS256(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, Actor{ID: "patient-1", Role: RolePatient}, actor)
	assert.False(t, actor.IsStaff())

	_, err = ParseAndVerifyHS256(token, "wrong-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAndUnsignedTokensRejected(t *testing.T) {
	expired, err := SignHS256("patient-1", RolePatient, -time.Minute, "test-secret")
	require.NoError(t, err)
	_, err = ParseAndVerifyHS256(expired, "test-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAndVerifyHS256(none, "test-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireAuth(t *testing.T) {
	secret := "test-secret"
	token, err := SignHS256("staff-9", RoleStaff, time.Hour, secret)
	require.NoError(t, err)

	h := RequireAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || actor.ID != "staff-9" || !actor.IsStaff() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)

	reqBad := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqBad.Header.Set("Authorization", "Bearer badtoken")
	rwBad := httptest.NewRecorder()
	h.ServeHTTP(rwBad, reqBad)
	assert.Equal(t, http.StatusUnauthorized, rwBad.Code)

	rwNone := httptest.NewRecorder()
	h.ServeHTTP(rwNone, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	assert.Equal(t, http.StatusUnauthorized, rwNone.Code)
}

func TestOptionalAuth(t *testing.T) {
	var seen bool
	h := OptionalAuth("test-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = ActorFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, seen)
}
