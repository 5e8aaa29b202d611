package linksign

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	defaultIssuer = "imagestudio"
	hkdfInfo      = "imagestudio download link v1"
	keySize       = 32
)

// Claims carries the image reference a download token grants access to.
type Claims struct {
	ImageURL string `json:"img"`
	jwt.RegisteredClaims
}

// Signer issues and verifies short-lived download tokens.
type Signer struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewSigner creates a signer from an explicit secret.
func NewSigner(secret string, expiry time.Duration) (*Signer, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("download signing secret must not be empty")
	}
	return newSigner([]byte(trimmed), expiry), nil
}

// NewDerivedSigner derives the signing key from another secret (the provider
// credential) with HKDF-SHA256, so the raw credential never signs anything.
func NewDerivedSigner(material string, expiry time.Duration) (*Signer, error) {
	key, err := DeriveKey(material)
	if err != nil {
		return nil, err
	}
	return newSigner(key, expiry), nil
}

// DeriveKey expands material into a 32 byte signing key.
func DeriveKey(material string) ([]byte, error) {
	trimmed := strings.TrimSpace(material)
	if trimmed == "" {
		return nil, errors.New("key material must not be empty")
	}
	reader := hkdf.New(sha256.New, []byte(trimmed), nil, []byte(hkdfInfo))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

func newSigner(secret []byte, expiry time.Duration) *Signer {
	if expiry <= 0 {
		expiry = time.Hour * 24
	}
	return &Signer{
		secret: secret,
		issuer: defaultIssuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// Sign issues a token for imageURL. Only absolute http(s) URLs are accepted.
func (s *Signer) Sign(imageURL string) (string, time.Time, error) {
	if s == nil {
		return "", time.Time{}, errors.New("link signer is nil")
	}
	if err := checkImageURL(imageURL); err != nil {
		return "", time.Time{}, err
	}
	now := s.now().UTC()
	expiry := now.Add(s.expiry)

	claims := Claims{
		ImageURL: imageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// Verify validates the token and returns the image URL it was issued for.
func (s *Signer) Verify(tokenString string) (string, error) {
	if s == nil {
		return "", errors.New("link signer is nil")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	if err := checkImageURL(claims.ImageURL); err != nil {
		return "", err
	}
	return claims.ImageURL, nil
}

func checkImageURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid image url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported image url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("image url has no host")
	}
	return nil
}
