package frost

import (
	"encoding/binary"

	"github.com/avast/retry-go/v4"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Domain separation tags for the hashes of this package. The signature
// challenge uses the BIP340 tag so that combined signatures verify as plain
// taproot signatures.
var (
	tagKeygenID = []byte("minimint/frost/keygen-id")
	tagPoP      = []byte("minimint/frost/pop")
	tagBinding  = []byte("minimint/frost/binding")
	tagNonce    = []byte("minimint/frost/nonce")
)

// maxDegenerateRetries bounds how often a step that produced a zero value is
// redone with fresh randomness.
const maxDegenerateRetries = 16

// taggedHash computes the BIP340 tagged hash of msgs under tag.
func taggedHash(tag []byte, msgs ...[]byte) [32]byte {
	return *chainhash.TaggedHash(tag, msgs...)
}

// hashToScalar reduces a tagged hash modulo the group order.
func hashToScalar(tag []byte, msgs ...[]byte) *Scalar {
	digest := taggedHash(tag, msgs...)
	return scalarFromDigest(digest[:])
}

// Challenge computes the BIP340 challenge H(R.x || X.x || m) for an x-only
// nonce and public key.
func Challenge(nonceX, publicKeyX [XOnlySize]byte, message []byte) *Scalar {
	return hashToScalar(chainhash.TagBIP0340Challenge, nonceX[:], publicKeyX[:], message)
}

// ToScalar returns the polynomial evaluation point of the participant,
// which is its index plus one.
func (pi ParticipantIndex) ToScalar() *Scalar {
	return NewScalarFromUint32(uint32(pi) + 1)
}

func (pi ParticipantIndex) bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(pi))
	return b[:]
}

// retryDegenerate runs fn again while it fails with a degenerate value and
// returns the last error otherwise.
func retryDegenerate(fn func() error) error {
	return retry.Do(
		fn,
		retry.Attempts(maxDegenerateRetries),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsDegenerate),
		retry.OnRetry(func(n uint, err error) {
			degenerateRetries.Inc()
		}),
	)
}

// ZeroizeScalarSlice securely clears a slice of scalars
func ZeroizeScalarSlice(scalars []*Scalar) {
	for _, scalar := range scalars {
		scalar.Zeroize()
	}
}
