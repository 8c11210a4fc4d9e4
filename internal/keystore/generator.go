package keystore

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// CurveEd25519 is the only EdDSA curve the local generator supports
const CurveEd25519 = "Ed25519"

// localRSABits is the modulus size for locally generated RSA keys
const localRSABits = 2048

// KeyGenerator produces new private keys for the store. The curve selector is
// only meaningful for EdDSA-family algorithms and is ignored otherwise.
// Implementations may fail for unsupported algorithm/curve combinations.
type KeyGenerator interface {
	Generate(ctx context.Context, alg Algorithm, curve string) (crypto.Signer, error)
}

// LocalKeyGenerator generates key pairs in process
type LocalKeyGenerator struct{}

// NewLocalKeyGenerator creates a generator backed by crypto/rand
func NewLocalKeyGenerator() *LocalKeyGenerator {
	return &LocalKeyGenerator{}
}

// Generate implements the KeyGenerator interface
func (g *LocalKeyGenerator) Generate(ctx context.Context, alg Algorithm, curve string) (crypto.Signer, error) {
	switch alg {
	case RS256, RS384, RS512, PS256, PS384, PS512:
		signer, err := rsa.GenerateKey(rand.Reader, localRSABits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate RSA key: %w", err)
		}
		return signer, nil

	case ES256:
		return g.generateEC(elliptic.P256())
	case ES384:
		return g.generateEC(elliptic.P384())
	case ES512:
		return g.generateEC(elliptic.P521())

	case EdDSA:
		if curve != "" && curve != CurveEd25519 {
			return nil, fmt.Errorf("unsupported curve for EdDSA: %s", curve)
		}
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate Ed25519 key: %w", err)
		}
		return priv, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}

func (g *LocalKeyGenerator) generateEC(curve elliptic.Curve) (crypto.Signer, error) {
	signer, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s key: %w", curve.Params().Name, err)
	}
	return signer, nil
}
