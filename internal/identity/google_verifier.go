package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	DefaultGoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	defaultGoogleLeeway  = 30 * time.Second
	defaultJWKSCacheTTL  = 5 * time.Minute
)

var (
	ErrInvalidFederatedToken = errors.New("invalid federated token")
	errUnknownKey            = errors.New("unknown token key")
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// FederatedIdentity is what a verified Google ID token says about its holder.
type FederatedIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type FederatedVerifier interface {
	Verify(ctx context.Context, idToken string) (FederatedIdentity, error)
}

type GoogleVerifierConfig struct {
	ClientID   string
	JWKSURL    string
	Leeway     time.Duration
	HTTPClient *http.Client
}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// GoogleVerifier checks RS256 Google ID tokens against the published JWKS.
// Keys are fetched on first use and again when they expire or an unknown
// kid shows up.
type GoogleVerifier struct {
	clientID   string
	jwksURL    string
	leeway     time.Duration
	httpClient *http.Client

	mu         sync.RWMutex
	rsaKeys    map[string]any
	keysExpire time.Time
}

func NewGoogleVerifier(cfg GoogleVerifierConfig) (*GoogleVerifier, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errors.New("google verifier requires client id")
	}
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		jwksURL = DefaultGoogleJWKSURL
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultGoogleLeeway
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	return &GoogleVerifier{
		clientID:   clientID,
		jwksURL:    jwksURL,
		leeway:     leeway,
		httpClient: httpClient,
	}, nil
}

func (verifier *GoogleVerifier) Verify(ctx context.Context, idToken string) (FederatedIdentity, error) {
	claims, err := verifier.parse(idToken)
	if err != nil && (errors.Is(err, errUnknownKey) || verifier.keysExpired()) {
		if refreshErr := verifier.refreshJWKS(ctx); refreshErr != nil {
			return FederatedIdentity{}, refreshErr
		}
		claims, err = verifier.parse(idToken)
	}
	if err != nil {
		return FederatedIdentity{}, fmt.Errorf("%w: %w", ErrInvalidFederatedToken, err)
	}

	if !validGoogleIssuer(claims.Issuer) {
		return FederatedIdentity{}, fmt.Errorf("%w: issuer %q", ErrInvalidFederatedToken, claims.Issuer)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return FederatedIdentity{}, fmt.Errorf("%w: subject missing", ErrInvalidFederatedToken)
	}
	return FederatedIdentity{
		Subject:       subject,
		Email:         strings.ToLower(strings.TrimSpace(claims.Email)),
		EmailVerified: claims.EmailVerified,
		Name:          strings.TrimSpace(claims.Name),
		Picture:       strings.TrimSpace(claims.Picture),
	}, nil
}

func (verifier *GoogleVerifier) parse(idToken string) (googleClaims, error) {
	claims := googleClaims{}
	keys := verifier.copyKeys()
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(idToken), &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[strings.TrimSpace(kid)]
		if !ok {
			return nil, errUnknownKey
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(verifier.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(verifier.leeway),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return claims, err
	}
	return claims, nil
}

func (verifier *GoogleVerifier) keysExpired() bool {
	verifier.mu.RLock()
	defer verifier.mu.RUnlock()
	return time.Now().UTC().After(verifier.keysExpire)
}

func (verifier *GoogleVerifier) copyKeys() map[string]any {
	verifier.mu.RLock()
	defer verifier.mu.RUnlock()
	out := make(map[string]any, len(verifier.rsaKeys))
	for kid, key := range verifier.rsaKeys {
		out[kid] = key
	}
	return out
}

func (verifier *GoogleVerifier) refreshJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, verifier.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := verifier.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]any, len(payload.Keys))
	for _, k := range payload.Keys {
		if strings.ToUpper(strings.TrimSpace(k.Kty)) != "RSA" {
			continue
		}
		kid := strings.TrimSpace(k.Kid)
		if kid == "" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks contains no usable rsa keys")
	}

	ttl := parseCacheMaxAge(resp.Header.Get("Cache-Control"))
	if ttl <= 0 {
		ttl = defaultJWKSCacheTTL
	}

	verifier.mu.Lock()
	verifier.rsaKeys = keys
	verifier.keysExpire = time.Now().UTC().Add(ttl)
	verifier.mu.Unlock()
	return nil
}

func validGoogleIssuer(issuer string) bool {
	for _, allowed := range googleIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}

func parseRSAPublicKey(nRaw, eRaw string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(nRaw))
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(eRaw))
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("invalid rsa key")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func parseCacheMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if !strings.HasPrefix(part, "max-age=") {
			continue
		}
		seconds, err := time.ParseDuration(strings.TrimPrefix(part, "max-age=") + "s")
		if err != nil {
			return 0
		}
		return seconds
	}
	return 0
}
