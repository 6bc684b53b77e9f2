package webrtc

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/pion/dtls/v3/pkg/crypto/fingerprint"

	"github.com/relaypath/webrtc/pkg/rtcerr"
)

// DTLSFingerprint specifies the hash function algorithm and certificate
// fingerprint carried in a session description's a=fingerprint attribute
// (RFC 4572 §5).
type DTLSFingerprint struct {
	// Algorithm is one of the names in the IANA "Hash Function Textual
	// Names" registry, e.g. "sha-256".
	Algorithm string

	// Value is the fingerprint rendered as colon-separated uppercase hex.
	Value string
}

// Certificate represents an x509 certificate/private-key pair used to
// authenticate a DTLS handshake.
type Certificate struct {
	privateKey crypto.PrivateKey
	x509Cert   *x509.Certificate
}

// NewCertificate builds a Certificate from a caller-supplied key and
// certificate template, self-signing it. Use this to control notAfter,
// subject, or key usage; GenerateCertificate covers the common case.
func NewCertificate(key crypto.PrivateKey, tpl x509.Certificate) (*Certificate, error) {
	var certDER []byte
	var err error

	switch sk := key.(type) {
	case *rsa.PrivateKey:
		tpl.SignatureAlgorithm = x509.SHA256WithRSA
		certDER, err = x509.CreateCertificate(rand.Reader, &tpl, &tpl, sk.Public(), sk)
	case *ecdsa.PrivateKey:
		tpl.SignatureAlgorithm = x509.ECDSAWithSHA256
		certDER, err = x509.CreateCertificate(rand.Reader, &tpl, &tpl, sk.Public(), sk)
	default:
		return nil, &rtcerr.NotSupportedError{Err: ErrPrivateKeyType}
	}
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	return &Certificate{privateKey: key, x509Cert: cert}, nil
}

// GenerateCertificate creates a self-signed certificate from the supplied
// key, valid for one month from now.
func GenerateCertificate(secretKey crypto.PrivateKey) (*Certificate, error) {
	origin := make([]byte, 16)
	/* #nosec */
	if _, err := rand.Read(origin); err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	// Max random value, a 130-bit integer, i.e. 2^130 - 1.
	maxBigInt := new(big.Int)
	/* #nosec */
	maxBigInt.Exp(big.NewInt(2), big.NewInt(130), nil).Sub(maxBigInt, big.NewInt(1))
	/* #nosec */
	serialNumber, err := rand.Int(rand.Reader, maxBigInt)
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	return NewCertificate(secretKey, x509.Certificate{
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageClientAuth,
			x509.ExtKeyUsageServerAuth,
		},
		BasicConstraintsValid: true,
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(0, 1, 0),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		SerialNumber:          serialNumber,
		Version:               2,
		Subject:               pkix.Name{CommonName: hex.EncodeToString(origin)},
		IsCA:                  true,
	})
}

// GenerateDefaultCertificate returns a fresh ECDSA-P256 certificate, used
// when an API is constructed with no explicit Configuration.Certificates.
func GenerateDefaultCertificate() (*Certificate, error) {
	sk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}
	return GenerateCertificate(sk)
}

// Equals reports whether two certificates share the same key material and
// x509 certificate bytes.
func (c Certificate) Equals(o Certificate) bool {
	switch cSK := c.privateKey.(type) {
	case *rsa.PrivateKey:
		if oSK, ok := o.privateKey.(*rsa.PrivateKey); ok {
			if cSK.N.Cmp(oSK.N) != 0 {
				return false
			}
			return c.x509Cert.Equal(o.x509Cert)
		}
		return false
	case *ecdsa.PrivateKey:
		if oSK, ok := o.privateKey.(*ecdsa.PrivateKey); ok {
			if cSK.X.Cmp(oSK.X) != 0 || cSK.Y.Cmp(oSK.Y) != 0 {
				return false
			}
			return c.x509Cert.Equal(o.x509Cert)
		}
		return false
	default:
		return false
	}
}

// Expires returns the timestamp after which this certificate is no longer
// valid.
func (c Certificate) Expires() time.Time {
	if c.x509Cert == nil {
		return time.Time{}
	}
	return c.x509Cert.NotAfter
}

// GetFingerprints returns the certificate fingerprint(s) to embed in an
// a=fingerprint line. Only sha-256 is produced.
func (c Certificate) GetFingerprints() ([]DTLSFingerprint, error) {
	value, err := fingerprint.Fingerprint(c.x509Cert, crypto.SHA256)
	if err != nil {
		return nil, &rtcerr.UnknownError{Err: err}
	}

	return []DTLSFingerprint{{
		Algorithm: "sha-256",
		Value:     value,
	}}, nil
}
