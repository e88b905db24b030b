package certprovider

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"
)

// SelfSignedCertificateProvider issues a throwaway CA and a serving certificate signed by it.
// Used to serve the api over https in development without a real certificate.
type SelfSignedCertificateProvider struct {
	org   string
	hosts []string
}

func NewSelfSignedCertificateProvider(org string, hosts ...string) *SelfSignedCertificateProvider {
	if len(hosts) == 0 {
		hosts = []string{"localhost", "127.0.0.1"}
	}
	return &SelfSignedCertificateProvider{org: org, hosts: hosts}
}

func (s *SelfSignedCertificateProvider) GetCACertificate(expire time.Time) (*x509.Certificate, *ecdsa.PrivateKey, error) {
	ca := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{s.org},
			CommonName:   s.org + " CA",
		},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              expire,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}

	caPrivKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate the ca key: %w", err)
	}

	caBytes, err := x509.CreateCertificate(rand.Reader, ca, ca, caPrivKey.Public(), caPrivKey)
	if err != nil {
		return nil, nil, err
	}

	caCert, err := x509.ParseCertificate(caBytes)
	if err != nil {
		return nil, nil, err
	}

	return caCert, caPrivKey, nil
}

func (s *SelfSignedCertificateProvider) GetCertificate(caCert *x509.Certificate, caKey *ecdsa.PrivateKey) (*x509.Certificate, *ecdsa.PrivateKey, error) {
	cert := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano() + 1),
		Subject: pkix.Name{
			Organization: caCert.Subject.Organization,
			CommonName:   s.hosts[0],
		},
		NotBefore:             caCert.NotBefore,
		NotAfter:              caCert.NotAfter,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	for _, h := range s.hosts {
		if ip := net.ParseIP(h); ip != nil {
			cert.IPAddresses = append(cert.IPAddresses, ip)
		} else {
			cert.DNSNames = append(cert.DNSNames, h)
		}
	}

	certPrivKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate the server private key: %w", err)
	}

	certBytes, err := x509.CreateCertificate(rand.Reader, cert, caCert, certPrivKey.Public(), caKey)
	if err != nil {
		return nil, nil, err
	}

	c, err := x509.ParseCertificate(certBytes)
	if err != nil {
		return nil, nil, err
	}

	return c, certPrivKey, nil
}

// TLSConfig returns a server config presenting a fresh certificate valid until expire.
// The certificate chain includes the CA.
func (s *SelfSignedCertificateProvider) TLSConfig(expire time.Time) (*tls.Config, *x509.Certificate, error) {
	caCert, caKey, err := s.GetCACertificate(expire)
	if err != nil {
		return nil, nil, err
	}
	cert, key, err := s.GetCertificate(caCert, caKey)
	if err != nil {
		return nil, nil, err
	}

	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{cert.Raw, caCert.Raw},
			PrivateKey:  key,
			Leaf:        cert,
		}},
	}, caCert, nil
}
