package runtime

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
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	appconfig "github.com/saker-ai/armscript/internal/config"
)

const selfSignedValidity = 365 * 24 * time.Hour

func listen(server *http.Server, cfg appconfig.Config, logger *zap.Logger) error {
	if !cfg.TLS.Enabled {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		return server.ListenAndServe()
	}

	certPath := filepath.Clean(cfg.TLS.CertPath)
	keyPath := filepath.Clean(cfg.TLS.KeyPath)
	if fileExists(certPath) && fileExists(keyPath) {
		logger.Info("starting https server", zap.String("addr", cfg.HTTPAddr), zap.String("cert_path", certPath))
		return server.ListenAndServeTLS(certPath, keyPath)
	}

	logger.Warn("tls certs missing; using in-memory cert",
		zap.String("cert_path", certPath),
		zap.String("key_path", keyPath),
	)
	cert, err := generateSelfSignedCert(cfg.Host)
	if err != nil {
		return fmt.Errorf("generate tls cert: %w", err)
	}
	server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	logger.Info("starting https server with in-memory cert", zap.String("addr", cfg.HTTPAddr))
	return server.ListenAndServeTLS("", "")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// generateSelfSignedCert issues a P-256 certificate valid for localhost, the
// configured host and every local interface address.
func generateSelfSignedCert(host string) (tls.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, err
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	dnsNames, ips := certSubjects(host)
	notBefore := time.Now().Add(-time.Minute)
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "armscript-local", Organization: []string{"armscript"}},
		NotBefore:    notBefore,
		NotAfter:     notBefore.Add(selfSignedValidity),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     dnsNames,
		IPAddresses:  ips,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, nil
}

func certSubjects(host string) ([]string, []net.IP) {
	dnsNames := []string{"localhost"}
	ips := []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}

	if host != "" && host != "0.0.0.0" && host != "::" {
		if ip := net.ParseIP(host); ip != nil {
			ips = appendIP(ips, ip)
		} else if !slices.Contains(dnsNames, host) {
			dnsNames = append(dnsNames, host)
		}
	}

	addrs, _ := net.InterfaceAddrs()
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsUnspecified() {
			ips = appendIP(ips, ipNet.IP)
		}
	}
	return dnsNames, ips
}

func appendIP(list []net.IP, ip net.IP) []net.IP {
	if slices.ContainsFunc(list, ip.Equal) {
		return list
	}
	return append(list, ip)
}
