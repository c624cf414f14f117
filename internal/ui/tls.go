package ui

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var loopbackHosts = []string{"127.0.0.1", "::1", "localhost"}

// GenerateSelfSignedCertificate returns a PEM certificate and ECDSA key valid
// for hosts plus the loopback names.
func GenerateSelfSignedCertificate(hosts []string, validFor time.Duration) ([]byte, []byte, error) {
	if validFor <= 0 {
		validFor = 365 * 24 * time.Hour
	}

	var dnsNames []string
	var ipAddrs []net.IP
	for _, host := range dedupeHosts(append(append([]string{}, hosts...), loopbackHosts...)) {
		if ip := net.ParseIP(host); ip != nil {
			ipAddrs = append(ipAddrs, ip)
			continue
		}
		dnsNames = append(dnsNames, host)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, nil, err
	}
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "ticketdesk"},
		NotBefore:             now.Add(-1 * time.Hour),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddrs,
		IsCA:                  true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, err
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, nil, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}

// WriteSelfSignedCertificate generates a certificate for listenAddr and
// stores it under dir as ui-cert.pem and ui-key.pem.
func WriteSelfSignedCertificate(dir, listenAddr string) (certPath, keyPath string, err error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", err
	}
	certPEM, keyPEM, err := GenerateSelfSignedCertificate(CertHosts(listenAddr), 365*24*time.Hour)
	if err != nil {
		return "", "", fmt.Errorf("generate certificate: %w", err)
	}
	certPath = filepath.Join(dir, "ui-cert.pem")
	keyPath = filepath.Join(dir, "ui-key.pem")
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil { //nolint:gosec // certificate is public
		return "", "", err
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return "", "", err
	}
	return certPath, keyPath, nil
}

// CertHosts returns the names a certificate for listenAddr should cover.
func CertHosts(listenAddr string) []string {
	host, _, err := net.SplitHostPort(listenAddr)
	if err != nil {
		host = ""
	}
	host = strings.TrimSpace(host)
	if host == "" || host == "0.0.0.0" || host == "::" {
		return append([]string{}, loopbackHosts...)
	}
	return dedupeHosts(append([]string{host}, loopbackHosts...))
}

func dedupeHosts(hosts []string) []string {
	seen := make(map[string]struct{}, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
