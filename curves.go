package frost

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Canonical widths of the encoded primitives.
const (
	ScalarSize        = 32
	PointSize         = 33
	XOnlySize         = 32
	BinonceSize       = 2 * PointSize
	SignatureSize     = XOnlySize + ScalarSize
	maxScalarAttempts = 128
)

// SecureRandom is the process randomness source used when a caller does not
// inject one.
var SecureRandom io.Reader = rand.Reader

// randomBytes reads exactly size bytes from rng.
func randomBytes(rng io.Reader, size int) ([]byte, error) {
	if rng == nil {
		rng = SecureRandom
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, ErrRandomnessGeneration.WithCause(err)
	}
	return buf, nil
}

// RandomScalar samples a uniformly random non-zero scalar from rng by
// rejection sampling.
func RandomScalar(rng io.Reader) (*Scalar, error) {
	for i := 0; i < maxScalarAttempts; i++ {
		buf, err := randomBytes(rng, ScalarSize)
		if err != nil {
			return nil, err
		}
		s := new(Scalar)
		overflow := s.inner.SetByteSlice(buf)
		zeroBytes(buf)
		if overflow || s.inner.IsZero() {
			continue
		}
		return s, nil
	}
	return nil, ErrRandomnessGeneration.WithContext("attempts", maxScalarAttempts).
		WithCause(fmt.Errorf("no scalar in range after %d draws", maxScalarAttempts))
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
