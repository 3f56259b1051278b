package bridge

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// CertificateSource supplies the PEM client certificate for the first handshake step
type CertificateSource interface {
	Certificate() (string, error)
}

// Signer signs outbound requests
type Signer interface {
	Sign(payload string) (string, error)
}

// Credentials are presented to the daemon during the handshake
type Credentials struct {
	Certificate CertificateSource
	Signer      Signer
}

// NullCertificate presents an empty certificate. The daemon treats the
// client as untrusted and asks the operator to allow it.
type NullCertificate struct{}

func (NullCertificate) Certificate() (string, error) { return "", nil }

// NullSigner sends requests unsigned
type NullSigner struct{}

func (NullSigner) Sign(string) (string, error) { return "", nil }

// TrustedCredentials is the development policy: no certificate, no signatures
func TrustedCredentials() Credentials {
	return Credentials{Certificate: NullCertificate{}, Signer: NullSigner{}}
}

// FileCertificate reads a PEM certificate from disk on every handshake
type FileCertificate struct {
	Path string
}

func (f FileCertificate) Certificate() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read certificate: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return "", fmt.Errorf("certificate %s: no PEM certificate block", f.Path)
	}

	return strings.TrimSpace(string(data)), nil
}

// RSASigner signs with SHA-512 over PKCS#1 v1.5 and base64 encodes the result
type RSASigner struct {
	key *rsa.PrivateKey
}

// LoadRSASigner reads a PKCS#1 or PKCS#8 RSA private key in PEM form
func LoadRSASigner(path string) (*RSASigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return ParseRSASigner(data)
}

// ParseRSASigner parses a PEM encoded RSA private key
func ParseRSASigner(data []byte) (*RSASigner, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("private key: no PEM block")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &RSASigner{key: key}, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", parsed)
	}

	return &RSASigner{key: key}, nil
}

func (s *RSASigner) Sign(payload string) (string, error) {
	digest := sha512.Sum512([]byte(payload))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA512, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Public returns the verification key
func (s *RSASigner) Public() *rsa.PublicKey {
	return &s.key.PublicKey
}

// ProductionCredentials loads the certificate and signing key from disk
func ProductionCredentials(certFile, keyFile string) (Credentials, error) {
	cert := FileCertificate{Path: certFile}
	if _, err := cert.Certificate(); err != nil {
		return Credentials{}, err
	}

	signer, err := LoadRSASigner(keyFile)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{Certificate: cert, Signer: signer}, nil
}
