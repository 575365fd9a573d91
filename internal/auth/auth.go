// Package auth issues JWTs to users that logged in and checks them on
// incoming requests. Tokens are read from the Authorization header or from
// the auth cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/patric-chuzhbe/twitterapi/internal/logger"
)

// ErrInvalidToken is returned for a missing, malformed, expired or wrongly
// signed token.
var ErrInvalidToken = errors.New("invalid auth token")

// Auth handles JWT token management.
type Auth struct {
	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// authCookieSigningSecretKey is the key used to sign JWTs.
	authCookieSigningSecretKey []byte

	// tokenTTL is the lifetime of an issued token.
	tokenTTL time.Duration

	// required makes AuthenticateUser reject requests without a valid token.
	required bool
}

// Claims represents the JWT claims used by the system.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

type initOptions struct {
	required bool
}

// InitOption configures Auth.
type InitOption func(*initOptions)

// WithRequired makes AuthenticateUser answer 401 to requests that carry no
// valid token. Without it the middleware only records the user when a valid
// token is present.
func WithRequired(required bool) InitOption {
	return func(options *initOptions) {
		options.required = required
	}
}

// New creates a new Auth with the given cookie name, JWT signing secret and
// token lifetime.
func New(
	authCookieName string,
	authCookieSigningSecretKey []byte,
	tokenTTL time.Duration,
	optionsProto ...InitOption,
) *Auth {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	return &Auth{
		authCookieName:             authCookieName,
		authCookieSigningSecretKey: authCookieSigningSecretKey,
		tokenTTL:                   tokenTTL,
		required:                   options.required,
	}
}

// BuildJWTString signs a token for the given user.
func (a *Auth) BuildJWTString(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
		UserID: userID.String(),
		Email:  email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.authCookieSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken validates tokenString and returns the user it was issued to.
func (a *Auth) GetUserIDFromToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.authCookieSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

// SetAuthCookie stores tokenString in the auth cookie of the response.
func (a *Auth) SetAuthCookie(response http.ResponseWriter, tokenString string) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    tokenString,
			Path:     "/",
			HttpOnly: true,
			MaxAge:   int(a.tokenTTL.Seconds()),
		},
	)
}

// AuthenticateUser is an HTTP middleware that puts the ID of the token's
// user into the request context.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, err := a.GetUserIDFromToken(a.getTokenStringFromAuthorizationHeaderOrCookie(request))
		if err != nil {
			if a.required {
				logger.Log.Debugw("rejected request without a valid token", "uri", request.RequestURI, "error", err)
				response.Header().Set("Content-Type", "application/json")
				response.WriteHeader(http.StatusUnauthorized)
				_, _ = response.Write([]byte(`{"error":"authentication required"}`))
				return
			}
			h.ServeHTTP(response, request)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := strings.TrimSpace(strings.TrimPrefix(request.Header.Get("Authorization"), "Bearer "))
	if tokenString != "" {
		return tokenString
	}
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		tokenString = cookie.Value
	}

	return tokenString
}
