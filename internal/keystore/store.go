package keystore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Store is the entry point for key management. It asks the generator for new
// key material, normalizes keys into records, and delegates rotation and
// publication to the rotator.
//
// The store never signs or verifies anything itself; it only decides which
// key to hand out and what to publish.
type Store struct {
	generator KeyGenerator
	rotator   *Rotator
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithGenerator overrides the key generator collaborator
func WithGenerator(g KeyGenerator) StoreOption {
	return func(s *Store) {
		s.generator = g
	}
}

// New creates an empty store backed by the local key generator
func New(opts ...StoreOption) *Store {
	s := &Store{
		generator: NewLocalKeyGenerator(),
		rotator:   NewRotator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateOption configures a single Generate call
type GenerateOption func(*generateOptions)

type generateOptions struct {
	keyID string
	curve string
}

// WithKeyID assigns the given key ID instead of a random identifier
func WithKeyID(kid string) GenerateOption {
	return func(o *generateOptions) {
		o.keyID = kid
	}
}

// WithCurve selects the curve for EdDSA-family keys
func WithCurve(curve string) GenerateOption {
	return func(o *generateOptions) {
		o.curve = curve
	}
}

// Generate requests a new key pair from the generator, normalizes it into a
// record, and adds it to the rotation. The new key takes the tail position.
func (s *Store) Generate(ctx context.Context, alg Algorithm, opts ...GenerateOption) (*Record, error) {
	if !alg.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	var o generateOptions
	for _, opt := range opts {
		opt(&o)
	}

	signer, err := s.generator.Generate(ctx, alg, o.curve)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	material, err := interchangeForm(signer)
	if err != nil {
		return nil, err
	}

	rec, err := NewRecord(alg, o.keyID, material)
	if err != nil {
		return nil, err
	}

	s.rotator.Add(rec)
	return rec, nil
}

// AddKey accepts externally supplied JWK material and adds it to the rotation.
// The material must name a supported algorithm and parse to a usable private
// key; a key ID is assigned when absent. Validation happens before insertion,
// so a rejected key leaves the store untouched, and the caller's map is never
// mutated.
func (s *Store) AddKey(material map[string]any) (*Record, error) {
	m := make(map[string]any, len(material))
	for k, v := range material {
		m[k] = v
	}

	alg, _ := m["alg"].(string)
	if alg == "" {
		return nil, ErrUnspecifiedAlgorithm
	}
	if !Algorithm(alg).Supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	kid, _ := m["kid"].(string)

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	if !isPrivateKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKeyMaterial, key.KeyType())
	}

	rec, err := NewRecord(Algorithm(alg), kid, m)
	if err != nil {
		return nil, err
	}

	s.rotator.Add(rec)
	return rec, nil
}

// Select returns the next key in rotation order, or the key with the given
// key ID when kid is non-empty. Returns nil when no key matches.
func (s *Store) Select(kid string) *Record {
	return s.rotator.Select(kid)
}

// Export returns the publishable form of every key in current rotation order.
// Export(false) is the shape of a JWK Set document suitable for a well-known
// key-discovery endpoint; Export(true) retains private members and is only
// for trusted internal transfer.
func (s *Store) Export(includePrivate bool) ([]map[string]any, error) {
	return s.rotator.Export(includePrivate)
}

// Len reports the number of keys currently held
func (s *Store) Len() int {
	return s.rotator.Len()
}

// interchangeForm converts a private key handle into its JWK members
func interchangeForm(raw any) (map[string]any, error) {
	key, err := jwk.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert key to JWK form: %w", err)
	}

	data, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	var material map[string]any
	if err := json.Unmarshal(data, &material); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key: %w", err)
	}
	return material, nil
}

// isPrivateKey reports whether the parsed key carries private material
func isPrivateKey(key jwk.Key) bool {
	switch key.(type) {
	case jwk.RSAPrivateKey, jwk.ECDSAPrivateKey, jwk.OKPPrivateKey:
		return true
	default:
		return false
	}
}
