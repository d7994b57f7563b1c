package storage

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const signerIssuer = "studiobook-files"

type fileClaims struct {
	Bucket string `json:"b"`
	Key    string `json:"k"`
	jwtlib.RegisteredClaims
}

// Signer issues and verifies expiring download links for stored objects.
type Signer struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewSigner returns a signer whose links point at baseURL + "/api/files/<token>".
func NewSigner(secret, baseURL string) *Signer {
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (s *Signer) Sign(bucket, key string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, fileClaims{
		Bucket: bucket,
		Key:    key,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    signerIssuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// URL signs bucket/key and returns the absolute download link.
func (s *Signer) URL(bucket, key string, ttl time.Duration) (string, time.Time, error) {
	token, exp, err := s.Sign(bucket, key, ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.baseURL + "/api/files/" + token, exp, nil
}

func (s *Signer) Verify(token string) (bucket, key string, err error) {
	parsed, err := jwtlib.ParseWithClaims(token, &fileClaims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(signerIssuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidURL
	}
	claims, ok := parsed.Claims.(*fileClaims)
	if !ok || claims.Bucket == "" || claims.Key == "" {
		return "", "", ErrInvalidURL
	}
	return claims.Bucket, claims.Key, nil
}

