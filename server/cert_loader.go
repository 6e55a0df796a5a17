package server

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

const defaultCertCheckInterval = time.Minute

// CertLoader serves the listener's TLS certificate and reloads it when the
// files on disk change, so renewed certificates are picked up without a
// restart. Files are checked at most once per interval.
type CertLoader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cert      *tls.Certificate
	loadedAt  time.Time
	lastCheck time.Time
}

// NewCertLoader loads the key pair once and returns the loader.
func NewCertLoader(certFile, keyFile string, logger *slog.Logger) (*CertLoader, error) {
	l := &CertLoader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger,
		interval: defaultCertCheckInterval,
		now:      time.Now,
	}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// TLSConfig returns a server TLS config backed by the loader.
func (l *CertLoader) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: l.GetCertificate,
	}
}

// GetCertificate is a callback for tls.Config.GetCertificate. Reload errors
// are logged and the previous certificate keeps being served.
func (l *CertLoader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastCheck) < l.interval {
		return l.cert, nil
	}
	l.lastCheck = now

	if l.changed() {
		if err := l.reload(); err != nil {
			l.logger.Error("failed to reload certificate", "error", err)
		}
	}
	return l.cert, nil
}

// changed reports whether either file is newer than the loaded pair.
func (l *CertLoader) changed() bool {
	for _, f := range []string{l.certFile, l.keyFile} {
		st, err := os.Stat(f)
		if err != nil {
			l.logger.Error("failed to stat tls file", "file", f, "error", err)
			return false
		}
		if st.ModTime().After(l.loadedAt) {
			return true
		}
	}
	return false
}

func (l *CertLoader) reload() error {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load key pair: %w", err)
	}
	l.cert = &cert
	l.loadedAt = l.now()
	l.logger.Info("loaded tls certificate", "cert", l.certFile, "key", l.keyFile)
	return nil
}
