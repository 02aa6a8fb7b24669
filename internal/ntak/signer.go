package ntak

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

var ErrInvalidCertificate = errors.New("ntak: invalid certificate")

// RequestSigner produces the signature and certificate headers of a request.
type RequestSigner interface {
	Sign(body []byte) (string, error)
	Certificate() string
}

// Signer signs request bodies with a detached RS256 JWS.
type Signer struct {
	key  jwk.Key
	cert string
}

// NewSigner parses a PEM private key and the matching PEM certificate.
func NewSigner(keyPEM, certPEM []byte) (*Signer, error) {
	key, err := jwk.ParseKey(keyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("ntak: parse private key: %w", err)
	}
	if key.KeyType() != jwa.RSA {
		return nil, fmt.Errorf("ntak: private key must be RSA, got %s", key.KeyType())
	}
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, ErrInvalidCertificate
	}
	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
	}
	return &Signer{key: key, cert: base64.StdEncoding.EncodeToString(certPEM)}, nil
}

// LoadSigner reads the key and certificate from disk.
func LoadSigner(keyPath, certPath string) (*Signer, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("ntak: read private key: %w", err)
	}
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("ntak: read certificate: %w", err)
	}
	return NewSigner(keyPEM, certPEM)
}

// Sign returns the compact detached JWS (header..signature) over body.
func (s *Signer) Sign(body []byte) (string, error) {
	sig, err := jws.Sign(nil, jws.WithKey(jwa.RS256, s.key), jws.WithDetachedPayload(body))
	if err != nil {
		return "", fmt.Errorf("ntak: sign body: %w", err)
	}
	return string(sig), nil
}

// Certificate returns the base64 encoded PEM certificate.
func (s *Signer) Certificate() string { return s.cert }
