// Package tls builds the panel's HTTPS configuration. Operators either
// point at an existing certificate pair or let the panel keep a
// self-signed one under the data directory.
package tls

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benchdeck/benchdeck/pkg/config"
)

const (
	// defaultValidFor is the lifetime of a generated certificate.
	defaultValidFor = 365 * 24 * time.Hour

	// regenerateWithin renews a generated certificate that is about to
	// expire instead of serving it to the bitter end.
	regenerateWithin = 14 * 24 * time.Hour

	certName = "panel.pem"
	keyName  = "panel.key"
)

// Load builds a *tls.Config from the panel settings. Disabled TLS returns
// (nil, nil). With AutoGenerate and no explicit files, a self-signed
// certificate is created under <dataDir>/certs and reused across restarts
// until it nears expiry.
func Load(cfg config.TLSConfig, dataDir string) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	certFile, keyFile := cfg.CertFile, cfg.KeyFile
	switch {
	case certFile != "" && keyFile != "":
		// Explicit pair, never touched by generation.
	case cfg.AutoGenerate:
		certFile = filepath.Join(dataDir, "certs", certName)
		keyFile = filepath.Join(dataDir, "certs", keyName)
		if err := ensureGenerated(certFile, keyFile, cfg.Hosts); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("tls enabled but no certificate configured and auto_generate is off")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load tls certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: secureCipherSuites(),
	}, nil
}

// ensureGenerated creates the self-signed pair if it is missing, expired
// or close to expiry.
func ensureGenerated(certFile, keyFile string, hosts []string) error {
	if _, err := os.Stat(certFile); err == nil {
		info, err := Info(certFile)
		if err == nil && info.ExpiresIn() > regenerateWithin {
			return nil
		}
	}
	return generateAndSave(certFile, keyFile, hosts, defaultValidFor)
}

// secureCipherSuites limits TLS 1.2 connections to AEAD ECDHE suites.
// TLS 1.3 suites are not configurable and always on.
func secureCipherSuites() []uint16 {
	return []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	}
}
