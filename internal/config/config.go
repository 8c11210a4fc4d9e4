package config

// Config is the root configuration structure for keywheel
type Config struct {
	// Server configuration (HTTP port)
	Server ServerConfig `koanf:"server"`

	// Issuer configuration for issued tokens
	Issuer IssuerConfig `koanf:"issuer"`

	// Keys configures the initial key set
	Keys KeysConfig `koanf:"keys"`

	// Log configures logging output
	Log LogConfig `koanf:"log"`
}

// ServerConfig contains network-level server settings
type ServerConfig struct {
	// HTTPPort is the port for the JWKS and token endpoints
	HTTPPort int `koanf:"http_port"`
}

// IssuerConfig configures token issuance
type IssuerConfig struct {
	// URL is the issuer URL (iss claim)
	URL string `koanf:"url"`

	// TTL is the token time-to-live as a duration string like "5m"
	TTL string `koanf:"ttl"`
}

// KeysConfig configures how the store is populated at startup
type KeysConfig struct {
	// Algorithm for the initial generated key when the store would otherwise
	// start empty (e.g., "ES256", "RS256", "EdDSA")
	Algorithm string `koanf:"algorithm"`

	// Curve selector for EdDSA-family algorithms
	Curve string `koanf:"curve"`

	// ImportFiles are JWK Set documents (YAML or JSON) to import at startup
	ImportFiles []string `koanf:"import_files"`

	// ImportDir is a directory of JWK Set documents to import at startup
	ImportDir string `koanf:"import_dir"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is the logrus level name (e.g., "info", "debug")
	Level string `koanf:"level"`

	// Format is "text" or "json"
	Format string `koanf:"format"`
}

// applyDefaults fills in defaults for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Issuer.URL == "" {
		cfg.Issuer.URL = "http://localhost:8080"
	}
	if cfg.Issuer.TTL == "" {
		cfg.Issuer.TTL = "5m"
	}
	if cfg.Keys.Algorithm == "" {
		cfg.Keys.Algorithm = "ES256"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
