package keyfile

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/keywheel/keywheel/internal/fs"
	"github.com/keywheel/keywheel/internal/keystore"
)

// keyFile is the on-disk shape: a JWK Set document, one key per entry.
// Each entry must carry its own "alg" member and may carry a "kid".
type keyFile struct {
	Keys []map[string]any `json:"keys" yaml:"keys"`
}

// LoadFile reads a YAML or JSON JWK Set document and adds every key to the
// store. Keys pass through the same validation as Store.AddKey, so a file
// with a bad key fails loudly instead of importing a partial set silently.
func LoadFile(fsys fs.FileSystem, store *keystore.Store, path string) ([]*keystore.Record, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	var kf keyFile

	// Detect format by extension
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &kf); err != nil {
			return nil, fmt.Errorf("failed to parse YAML key file %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, &kf); err != nil {
			return nil, fmt.Errorf("failed to parse JSON key file %s: %w", path, err)
		}
	}

	records := make([]*keystore.Record, 0, len(kf.Keys))
	for i, material := range kf.Keys {
		rec, err := store.AddKey(material)
		if err != nil {
			return nil, fmt.Errorf("failed to add key %d from %s: %w", i, path, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// LoadDir loads every key file from a directory, in name order
func LoadDir(fsys fs.FileSystem, store *keystore.Store, dir string) ([]*keystore.Record, error) {
	names, err := fsys.List(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read key directory: %w", err)
	}

	var records []*keystore.Record
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".json"),
			strings.HasSuffix(name, ".yaml"),
			strings.HasSuffix(name, ".yml"):
		default:
			continue
		}

		recs, err := LoadFile(fsys, store, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	return records, nil
}
