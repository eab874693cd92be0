package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("auth-test-secret")

func signToken(t *testing.T, secret []byte, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func memberClaims(memberID uuid.UUID, admin bool) Claims {
	return Claims{
		Username: "dana",
		IsAdmin:  admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	memberID := uuid.New()

	var got Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		got = id
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(testSecret)(next)

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{
			name:   "valid token",
			header: "Bearer " + signToken(t, testSecret, memberClaims(memberID, false)),
			status: http.StatusOK,
		},
		{
			name:   "missing header",
			header: "",
			status: http.StatusUnauthorized,
		},
		{
			name:   "not a bearer scheme",
			header: "Basic abc123",
			status: http.StatusUnauthorized,
		},
		{
			name:   "wrong secret",
			header: "Bearer " + signToken(t, []byte("someone-else"), memberClaims(memberID, false)),
			status: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			header: "Bearer " + signToken(t, testSecret, Claims{
				Username: "dana",
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   memberID.String(),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
			}),
			status: http.StatusUnauthorized,
		},
		{
			name: "subject is not a uuid",
			header: "Bearer " + signToken(t, testSecret, Claims{
				Username: "dana",
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "not-a-uuid",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}),
			status: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
		})
	}

	require.Equal(t, memberID, got.MemberID)
	require.Equal(t, "dana", got.Username)
	require.False(t, got.IsAdmin)
}

func TestAuthenticateRejectsUnsignedAlgorithm(t *testing.T) {
	memberID := uuid.New()
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, memberClaims(memberID, true)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAdmin(next)

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/reservations/x/approve", nil)
		ctx := WithIdentity(req.Context(), Identity{MemberID: uuid.New(), IsAdmin: true})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/reservations/x/approve", nil)
		ctx := WithIdentity(req.Context(), Identity{MemberID: uuid.New()})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing identity is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/reservations/x/approve", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
