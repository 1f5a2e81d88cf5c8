package rpc

import (
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// AuthConfig captures the knobs for verifying caller identity tokens.
type AuthConfig struct {
	HMACSecret string
	Issuer     string
	Audience   string
}

// CallerVerifier resolves the authenticated caller address from a request's
// bearer token. The JWT subject carries the caller's hex address; the verified
// address is recorded on the request context so the engines' authentication
// collaborator can match it against the acting party of each call.
type CallerVerifier struct {
	cfg    AuthConfig
	secret []byte
}

// NewCallerVerifier builds a verifier from the given config. An empty secret
// disables verification: every bearer token is rejected.
func NewCallerVerifier(cfg AuthConfig) *CallerVerifier {
	return &CallerVerifier{cfg: cfg, secret: []byte(strings.TrimSpace(cfg.HMACSecret))}
}

// Caller extracts and verifies the bearer token, returning the proven caller
// address. The second return reports whether a token was presented at all.
func (v *CallerVerifier) Caller(r *http.Request) ([20]byte, bool, error) {
	var addr [20]byte
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return addr, false, nil
	}
	if len(v.secret) == 0 {
		return addr, true, errors.New("auth secret not configured")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return addr, true, err
	}
	if !token.Valid {
		return addr, true, errors.New("token invalid")
	}
	addr, err = parseAddress(claims.Subject)
	if err != nil {
		return addr, true, errors.New("token subject is not a caller address")
	}
	return addr, true, nil
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
