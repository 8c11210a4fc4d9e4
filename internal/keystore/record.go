package keystore

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Algorithm is a JWS signing algorithm identifier (e.g., "ES256", "RS256")
type Algorithm string

// The supported signing algorithms. Symmetric algorithms are deliberately
// excluded: every key in the store must have a publishable public half.
const (
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
	EdDSA Algorithm = "EdDSA"
)

// Supported reports whether the algorithm is in the supported set
func (a Algorithm) Supported() bool {
	switch a {
	case RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, ES512, EdDSA:
		return true
	default:
		return false
	}
}

// privateFields returns the JWK member names carrying private key material for
// the algorithm's family. An algorithm outside the known families returns an
// error so that an unrecognized key is never published unredacted.
func (a Algorithm) privateFields() ([]string, error) {
	switch a {
	case RS256, RS384, RS512, PS256, PS384, PS512:
		return []string{"d", "p", "q", "dp", "dq", "qi"}, nil
	case ES256, ES384, ES512:
		return []string{"d"}, nil
	case EdDSA:
		return []string{"d"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, a)
	}
}

// Record is a signing key held by the store.
// Material holds the key's JWK members (kty, n, e, d, ...) without "alg" and
// "kid", which are normalized into the struct fields. The store treats the
// members as opaque beyond knowing which are private for the algorithm family.
type Record struct {
	Algorithm Algorithm
	KeyID     string
	Material  map[string]any
}

// NewRecord validates the algorithm, assigns a random key ID when none is
// supplied, and copies the material so the caller's map is never retained
func NewRecord(alg Algorithm, kid string, material map[string]any) (*Record, error) {
	if alg == "" {
		return nil, ErrUnspecifiedAlgorithm
	}
	if !alg.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	if kid == "" {
		var err error
		kid, err = NewKeyID()
		if err != nil {
			return nil, err
		}
	}

	m := make(map[string]any, len(material))
	for k, v := range material {
		m[k] = v
	}
	delete(m, "alg")
	delete(m, "kid")

	return &Record{
		Algorithm: alg,
		KeyID:     kid,
		Material:  m,
	}, nil
}

// keyIDBytes is the entropy behind a generated key ID. Key IDs are published,
// so they must be unpredictable as well as unique.
const keyIDBytes = 40

// NewKeyID returns a hex-encoded identifier drawn from crypto/rand
func NewKeyID() (string, error) {
	buf := make([]byte, keyIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key ID: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// JWK materializes the record as a jwk.Key for signing or verification
func (r *Record) JWK() (jwk.Key, error) {
	data, err := json.Marshal(r.export())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key material: %w", err)
	}

	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key material: %w", err)
	}

	return key, nil
}

// export returns the full-fidelity publishable form of the record, private
// members included. The result is a fresh map; the record is never exposed
// for mutation.
func (r *Record) export() map[string]any {
	out := make(map[string]any, len(r.Material)+2)
	for k, v := range r.Material {
		out[k] = v
	}
	out["alg"] = string(r.Algorithm)
	out["kid"] = r.KeyID
	return out
}

// exportPublic returns the publishable form with the algorithm family's
// private members redacted. Fails closed: a record with a missing or
// unrecognized algorithm is an error, never silently published.
func (r *Record) exportPublic() (map[string]any, error) {
	if r.Algorithm == "" {
		return nil, fmt.Errorf("%w: alg", ErrMissingField)
	}

	private, err := r.Algorithm.privateFields()
	if err != nil {
		return nil, err
	}

	out := r.export()
	for _, field := range private {
		delete(out, field)
	}
	return out, nil
}
