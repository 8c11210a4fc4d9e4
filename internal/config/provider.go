package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keywheel/keywheel/internal/fs"
	"github.com/keywheel/keywheel/internal/keyfile"
	"github.com/keywheel/keywheel/internal/keystore"
	"github.com/keywheel/keywheel/internal/server"
	"github.com/keywheel/keywheel/internal/signer"
)

// Provider builds components from configuration
type Provider struct {
	cfg  *Config
	fsys fs.FileSystem
}

// NewProvider creates a provider for the given configuration
func NewProvider(cfg *Config) *Provider {
	return &Provider{
		cfg:  cfg,
		fsys: fs.NewOSFileSystem(),
	}
}

// Logger builds the configured logrus logger
func (p *Provider) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(p.cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", p.cfg.Log.Level, err)
	}

	log := logrus.New()
	log.SetLevel(level)
	if p.cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}

// Store builds the key store: imports configured key files, then generates an
// initial key when the store would otherwise start empty
func (p *Provider) Store(ctx context.Context) (*keystore.Store, error) {
	store := keystore.New()

	for _, path := range p.cfg.Keys.ImportFiles {
		if _, err := keyfile.LoadFile(p.fsys, store, path); err != nil {
			return nil, fmt.Errorf("failed to import keys from %s: %w", path, err)
		}
	}

	if p.cfg.Keys.ImportDir != "" {
		if _, err := keyfile.LoadDir(p.fsys, store, p.cfg.Keys.ImportDir); err != nil {
			return nil, fmt.Errorf("failed to import keys from %s: %w", p.cfg.Keys.ImportDir, err)
		}
	}

	if store.Len() == 0 {
		var opts []keystore.GenerateOption
		if p.cfg.Keys.Curve != "" {
			opts = append(opts, keystore.WithCurve(p.cfg.Keys.Curve))
		}
		if _, err := store.Generate(ctx, keystore.Algorithm(p.cfg.Keys.Algorithm), opts...); err != nil {
			return nil, fmt.Errorf("failed to generate initial key: %w", err)
		}
	}

	return store, nil
}

// Signer builds the token signer on top of the store
func (p *Provider) Signer(store *keystore.Store) (*signer.Signer, error) {
	ttl, err := time.ParseDuration(p.cfg.Issuer.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer ttl %q: %w", p.cfg.Issuer.TTL, err)
	}

	return signer.New(signer.Config{
		IssuerURL: p.cfg.Issuer.URL,
		TTL:       ttl,
		Store:     store,
	}), nil
}

// Server builds the HTTP server
func (p *Provider) Server(store *keystore.Store, sgn *signer.Signer, log logrus.FieldLogger) *server.Server {
	return server.New(server.Config{
		HTTPPort: p.cfg.Server.HTTPPort,
		Store:    store,
		Signer:   sgn,
		Logger:   log,
	})
}
