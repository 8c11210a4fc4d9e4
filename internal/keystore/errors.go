package keystore

import "errors"

var (
	// ErrUnspecifiedAlgorithm is returned when externally supplied key material
	// carries no "alg" member
	ErrUnspecifiedAlgorithm = errors.New("key material does not specify an algorithm")

	// ErrUnsupportedAlgorithm is returned when an algorithm is not in the
	// supported set, on add and on export
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrInvalidKeyMaterial is returned when supplied material does not resolve
	// to a usable private key
	ErrInvalidKeyMaterial = errors.New("key material is not a usable private key")

	// ErrMissingField is returned when a record lacks a required field at
	// export time
	ErrMissingField = errors.New("record is missing a required field")
)
