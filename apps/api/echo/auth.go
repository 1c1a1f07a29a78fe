package echoapi

import (
	"context"
	"crypto/rsa"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/volonteri/evidencija/core"
)

const (
	contextIdentityKey = "identity"
	bearerScheme       = "Bearer"

	// an unknown kid triggers at most one refetch per minRefresh
	minRefresh = time.Minute
)

var (
	googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

	errUnknownKey = errors.New("unknown signing key")
)

// GoogleClaims are the claims of a Google ID token.
type GoogleClaims struct {
	jwt.StandardClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
}

// TokenVerifier checks Google ID tokens against the published signing certificates.
type TokenVerifier struct {
	clientID string
	certsURL string
	allowed  map[string]bool
	ttl      time.Duration
	client   *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	now       func() time.Time
}

// NewTokenVerifier returns nil when no client ID is configured.
func NewTokenVerifier(conf *core.Config) *TokenVerifier {
	if conf.Auth.GoogleClientID == "" {
		return nil
	}
	allowed := make(map[string]bool, len(conf.Auth.AllowedEmails))
	for _, email := range conf.Auth.AllowedEmails {
		if email = core.CleanString(email, true /* lower */); email != "" {
			allowed[email] = true
		}
	}
	ttl := conf.Auth.CertsTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenVerifier{
		clientID: conf.Auth.GoogleClientID,
		certsURL: conf.Auth.CertsURL,
		allowed:  allowed,
		ttl:      ttl,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Verify parses raw and returns the identity it carries.
// Key set fetch failures are returned as *core.UpstreamError, anything else means the token is not valid.
func (v *TokenVerifier) Verify(ctx context.Context, raw string) (core.Identity, error) {
	var upstreamErr error
	claims := new(GoogleClaims)
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, errors.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		kid, _ := token.Header["kid"].(string)
		key, err := v.key(ctx, kid)
		if err != nil && core.IsUpstream(err) {
			upstreamErr = err
		}
		return key, err
	})
	if upstreamErr != nil {
		return core.Identity{}, upstreamErr
	}
	if err != nil {
		return core.Identity{}, errors.Wrap(err, "parsing token")
	}

	if !claims.VerifyAudience(v.clientID, true) {
		return core.Identity{}, errors.New("token audience mismatch")
	}
	if !validIssuer(claims.Issuer) {
		return core.Identity{}, errors.Errorf("unexpected token issuer %q", claims.Issuer)
	}

	return core.Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

// Allowed reports whether id may write. Every verified identity may when no emails are configured,
// otherwise the email must be listed and verified by Google.
func (v *TokenVerifier) Allowed(id core.Identity) bool {
	if len(v.allowed) == 0 {
		return true
	}
	return id.EmailVerified && v.allowed[strings.ToLower(id.Email)]
}

func (v *TokenVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if key, ok := v.keys[kid]; ok && now.Sub(v.fetchedAt) < v.ttl {
		return key, nil
	}
	if v.keys == nil || now.Sub(v.fetchedAt) >= v.ttl || now.Sub(v.fetchedAt) >= minRefresh {
		keys, err := v.fetchKeys(ctx)
		if err != nil {
			return nil, core.NewUpstreamError("Failed to verify token", err)
		}
		v.keys = keys
		v.fetchedAt = now
	}
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, errUnknownKey
}

// fetchKeys reads a {"kid": "PEM"} document.
func (v *TokenVerifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating certs request")
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching certs")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetching certs: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "reading certs")
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("certs document is not valid JSON")
	}

	keys := make(map[string]*rsa.PublicKey)
	var parseErr error
	gjson.ParseBytes(body).ForEach(func(kid, cert gjson.Result) bool {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cert.String()))
		if err != nil {
			parseErr = errors.Wrapf(err, "parsing cert %q", kid.String())
			return false
		}
		keys[kid.String()] = key
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return keys, nil
}

func validIssuer(iss string) bool {
	for _, valid := range googleIssuers {
		if iss == valid {
			return true
		}
	}
	return false
}

// authMiddleware requires a verified bearer token. A nil verifier disables the check.
func authMiddleware(v *TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if v == nil {
				return next(ctx)
			}

			raw, ok := bearerToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errMissingToken
			}
			id, err := v.Verify(ctx.Request().Context(), raw)
			if err != nil {
				if core.IsUpstream(err) {
					return err
				}
				return &echo.HTTPError{Code: errInvalidToken.Code, Message: errInvalidToken.Message, Internal: err}
			}
			if !v.Allowed(id) {
				return errForbidden
			}

			ctx.Set(contextIdentityKey, id)
			return next(ctx)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// contextIdentity is the verified caller, if any. Zero when auth is disabled.
func contextIdentity(ctx echo.Context) core.Identity {
	id, _ := ctx.Get(contextIdentityKey).(core.Identity)
	return id
}
