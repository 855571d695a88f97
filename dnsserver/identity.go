// Package dnsserver implements the local DoH and DoT server surfaces that
// expose the resolver pipeline's verified answers (§4.9).
package dnsserver

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"net"
	"time"
)

// CertSource is the external certificate-store collaborator contract (§6):
// it supplies the local CA and a localhost leaf to the DoH/DoT servers.
type CertSource interface {
	ServerCertificate() (tls.Certificate, error)
}

// Identity wraps a CertSource and exposes the *tls.Config both servers
// share (§4.9).
type Identity struct {
	Source CertSource
}

// TLSConfig builds a server-side *tls.Config using the identity's leaf
// certificate.
func (id *Identity) TLSConfig() (*tls.Config, error) {
	cert, err := id.Source.ServerCertificate()
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}

// LocalCA is the default CertSource: it generates an ephemeral CA and a
// localhost leaf signed by it at startup. Exporting the CA to the host OS
// trust store is explicitly left to the external setup collaborator (§1,
// §6); LocalCA only produces bytes in memory.
type LocalCA struct {
	caKey  *ecdsa.PrivateKey
	caCert *x509.Certificate
	leaf   tls.Certificate
	built  bool
}

// NewLocalCA generates a fresh CA and localhost leaf certificate valid for
// validFor (e.g. one year).
func NewLocalCA(validFor time.Duration) (*LocalCA, error) {
	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	caSerial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	caTemplate := &x509.Certificate{
		SerialNumber:          caSerial,
		Subject:               pkix.Name{CommonName: "hnsgo local CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		return nil, err
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return nil, err
	}

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	leafSerial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, err
	}
	leafTemplate := &x509.Certificate{
		SerialNumber: leafSerial,
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(validFor),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, caCert, &leafKey.PublicKey, caKey)
	if err != nil {
		return nil, err
	}

	leaf := tls.Certificate{
		Certificate: [][]byte{leafDER, caDER},
		PrivateKey:  leafKey,
	}

	return &LocalCA{caKey: caKey, caCert: caCert, leaf: leaf, built: true}, nil
}

var errCANotBuilt = errors.New("dnsserver: local CA not initialized")

// ServerCertificate satisfies CertSource.
func (c *LocalCA) ServerCertificate() (tls.Certificate, error) {
	if !c.built {
		return tls.Certificate{}, errCANotBuilt
	}
	return c.leaf, nil
}

// CACertificate returns the parsed CA certificate (its DER bytes are in
// Raw), for an external collaborator to export to the host trust store.
func (c *LocalCA) CACertificate() *x509.Certificate { return c.caCert }
