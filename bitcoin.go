package frost

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Signature is a final BIP340 Schnorr signature: the x coordinate of an
// even-Y nonce point and a non-zero scalar.
type Signature struct {
	R [XOnlySize]byte
	S *Scalar
}

// Bytes returns the 64-byte BIP340 encoding.
func (sig *Signature) Bytes() [SignatureSize]byte {
	var out [SignatureSize]byte
	copy(out[:XOnlySize], sig.R[:])
	s := sig.S.Bytes()
	copy(out[XOnlySize:], s[:])
	return out
}

func (sig *Signature) String() string {
	b := sig.Bytes()
	return hex.EncodeToString(b[:])
}

// Verify checks the signature against a BIP340 x-only public key for an
// arbitrary length message.
func (sig *Signature) Verify(publicKey *Point, message []byte) bool {
	if sig == nil || sig.S == nil || sig.S.IsZero() || publicKey.IsIdentity() {
		return false
	}
	nonce, err := liftX(sig.R)
	if err != nil {
		return false
	}
	even := publicKey.conditionalNegate(publicKey.HasOddY())
	c := Challenge(sig.R, even.XOnly(), message)
	// s·G == R + c·P
	return ScalarBaseMult(sig.S).Equal(nonce.Add(even.Mul(c)))
}

// ToSchnorr converts the signature for use with btcec's BIP340 verifier.
func (sig *Signature) ToSchnorr() (*schnorr.Signature, error) {
	b := sig.Bytes()
	parsed, err := schnorr.ParseSignature(b[:])
	if err != nil {
		return nil, ErrInvalidEncoding.WithCause(err)
	}
	return parsed, nil
}

// VerifySchnorr verifies a signature over a 32-byte message digest using
// btcec's BIP340 implementation.
func VerifySchnorr(sig *Signature, publicKey *Point, digest [32]byte) bool {
	parsed, err := sig.ToSchnorr()
	if err != nil {
		return false
	}
	xonly := publicKey.XOnly()
	pub, err := schnorr.ParsePubKey(xonly[:])
	if err != nil {
		return false
	}
	return parsed.Verify(digest[:], pub)
}

// liftX returns the even-Y point with the given x coordinate.
func liftX(x [XOnlySize]byte) (*Point, error) {
	pub, err := schnorr.ParsePubKey(x[:])
	if err != nil {
		return nil, ErrInvalidEncoding.WithCause(err)
	}
	return PointFromPublicKey(pub), nil
}

// SignatureFromBytes parses a 64-byte BIP340 signature. The nonce must be a
// valid x coordinate and the scalar non-zero and below the group order.
func SignatureFromBytes(data []byte) (*Signature, error) {
	if len(data) != SignatureSize {
		return nil, ErrTruncatedInput.WithContext("expected", SignatureSize).WithContext("got", len(data))
	}
	var r [XOnlySize]byte
	copy(r[:], data[:XOnlySize])
	if _, err := liftX(r); err != nil {
		return nil, err
	}
	s, err := ScalarFromBytes(data[XOnlySize:])
	if err != nil {
		return nil, err
	}
	if s.IsZero() {
		return nil, ErrUnexpectedZero.WithContext("value", "signature scalar")
	}
	return &Signature{R: r, S: s}, nil
}
