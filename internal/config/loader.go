package config

import (
	"fmt"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	ktoml "github.com/knadh/koanf/parsers/toml/v2"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "KEYWHEEL_"

// flagKeys maps command-line flag names to config paths
var flagKeys = map[string]string{
	"http-port":     "server.http_port",
	"issuer-url":    "issuer.url",
	"issuer-ttl":    "issuer.ttl",
	"key-algorithm": "keys.algorithm",
	"key-curve":     "keys.curve",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// RegisterFlags registers the config-backed command-line flags
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int("http-port", 0, "HTTP server port (JWKS and token endpoints)")
	flags.String("issuer-url", "", "issuer URL for issued tokens")
	flags.String("issuer-ttl", "", "token time-to-live (e.g. 5m)")
	flags.String("key-algorithm", "", "algorithm for the initial generated key")
	flags.String("key-curve", "", "curve selector for EdDSA-family keys")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
}

// Load builds the configuration by layering, lowest precedence first: the
// config file, KEYWHEEL_* environment variables, then command-line flags.
// An empty path skips the file layer.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// parserFor picks a parser from the file extension
func parserFor(path string) (koanf.Parser, error) {
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return kyaml.Parser(), nil
	case strings.HasSuffix(path, ".json"):
		return kjson.Parser(), nil
	case strings.HasSuffix(path, ".toml"):
		return ktoml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", path)
	}
}

// envToKey maps KEYWHEEL_SERVER_HTTP_PORT to server.http_port. The first
// underscore separates the section from the key.
func envToKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 2 {
		return parts[0] + "." + parts[1]
	}
	return s
}
