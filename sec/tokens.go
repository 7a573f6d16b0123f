package sec

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateOpaqueToken generates a Base64-encoded, URL-safe, opaque random string
func GenerateOpaqueToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = 32 // default 32 bytes (256 bits)
	}
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// ServiceSigner issues short-lived RS256 tokens the gateway presents to the document backend.
// The subject is the editor session the call acts on.
type ServiceSigner struct {
	Issuer   string
	Audience string
	KeyID    string
	TTL      time.Duration
	key      *rsa.PrivateKey
	now      func() time.Time
}

func NewServiceSigner(issuer, audience, kid string, key *rsa.PrivateKey, ttl time.Duration) (*ServiceSigner, error) {
	if key == nil {
		return nil, errors.New("no signing key")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if kid == "" {
		var err error
		if kid, err = GenerateKeyID(&key.PublicKey, 16); err != nil {
			return nil, err
		}
	}
	return &ServiceSigner{Issuer: issuer, Audience: audience, KeyID: kid, TTL: ttl, key: key, now: time.Now}, nil
}

func (s *ServiceSigner) Sign(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(s.TTL).Unix(),
		"iss": s.Issuer,
		"aud": s.Audience,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.KeyID
	return token.SignedString(s.key)
}

// PublicKeys is the key set a backend verifies service tokens with
func (s *ServiceSigner) PublicKeys() *JWKS {
	return &JWKS{Keys: []JWK{NewJWKFromPublicKey(s.KeyID, &s.key.PublicKey)}}
}

// VerifyServiceToken checks an RS256 token against a key set and returns its claims
func VerifyServiceToken(signedToken string, keys *JWKS, audience string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(signedToken, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		jwk, err := keys.Get(kid)
		if err != nil {
			return nil, err
		}
		return jwk.ToPublicKey()
	}, jwt.WithAudience(audience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("failed to convert token claims to a map")
	}
	return claims, nil
}

// ExtractBearerToken returns the token of an `Authorization: Bearer` header, "" if absent
func ExtractBearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return token
}
