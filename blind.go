package frost

import (
	"io"
)

// BlindingKey is the requester's secret for one signing request: the two
// blinding scalars, the challenge of the unblinded signature, the x
// coordinates of the blinded nonce and the joint key, and whether the
// blinded nonce had odd Y. It never leaves the requester.
type BlindingKey struct {
	alpha     *Scalar
	beta      *Scalar
	challenge *Scalar
	nonceX    [XOnlySize]byte
	keyX      [XOnlySize]byte
	negate    bool
}

// Zeroize clears the blinding scalars and the challenge.
func (bk *BlindingKey) Zeroize() {
	bk.alpha.Zeroize()
	bk.beta.Zeroize()
	bk.challenge.Zeroize()
}

// NonceX returns the x coordinate the final signature will carry.
func (bk *BlindingKey) NonceX() [XOnlySize]byte {
	return bk.nonceX
}

// BlindedMessage is the challenge the signers sign in place of the message.
type BlindedMessage struct {
	c *Scalar
}

// NewBlindedMessage wraps a non-zero scalar received over the wire.
func NewBlindedMessage(c *Scalar) (*BlindedMessage, error) {
	if c == nil || c.IsZero() {
		return nil, ErrUnexpectedZero.WithContext("value", "blinded message")
	}
	return &BlindedMessage{c: c.Copy()}, nil
}

// Scalar returns the blinded challenge.
func (bm *BlindedMessage) Scalar() *Scalar {
	return bm.c.Copy()
}

func (bm *BlindedMessage) Equal(other *BlindedMessage) bool {
	return bm.c.Equal(other.c)
}

// BlindedSignature is the combined signature over a blinded message.
type BlindedSignature struct {
	s *Scalar
}

// NewBlindedSignature wraps a non-zero scalar received over the wire.
func NewBlindedSignature(s *Scalar) (*BlindedSignature, error) {
	if s == nil || s.IsZero() {
		return nil, ErrUnexpectedZero.WithContext("value", "blinded signature")
	}
	return &BlindedSignature{s: s.Copy()}, nil
}

// Scalar returns the signature scalar.
func (bs *BlindedSignature) Scalar() *Scalar {
	return bs.s.Copy()
}

// Blind hides message from the signers of a session with aggregate nonce R.
//
// The requester samples α and β and moves the nonce to R' = R + α·G + β·X,
// where X is the even-Y joint key. With e = H(R'.x, X.x, m) the signers
// receive c = e + β, or c = β - e when R' has odd Y. Either way c is
// uniformly distributed and independent of m.
func Blind(rng io.Reader, jointKey *JointKey, sessionNonce *Point, message []byte) (*BlindingKey, *BlindedMessage, error) {
	if sessionNonce.IsIdentity() {
		return nil, nil, ErrUnexpectedZero.WithContext("value", "session nonce")
	}
	if err := jointKey.Validate(); err != nil {
		return nil, nil, err
	}
	publicKey := jointKey.EvenPublicKey()
	publicKeyX := publicKey.XOnly()

	var (
		key     *BlindingKey
		blinded *BlindedMessage
	)
	err := retryDegenerate(func() error {
		alpha, err := RandomScalar(rng)
		if err != nil {
			return err
		}
		beta, err := RandomScalar(rng)
		if err != nil {
			return err
		}

		nonce := sessionNonce.Add(ScalarBaseMult(alpha)).Add(publicKey.Mul(beta))
		if nonce.IsIdentity() {
			alpha.Zeroize()
			beta.Zeroize()
			return ErrDegenerateValue.WithContext("value", "blinded nonce")
		}

		nonceX := nonce.XOnly()
		negate := nonce.HasOddY()
		e := Challenge(nonceX, publicKeyX, message)
		c := beta.Add(e)
		if negate {
			c = beta.Sub(e)
		}
		if err := c.nonZero("blinded message"); err != nil {
			alpha.Zeroize()
			beta.Zeroize()
			return err
		}

		key = &BlindingKey{
			alpha:     alpha,
			beta:      beta,
			challenge: e,
			nonceX:    nonceX,
			keyX:      publicKeyX,
			negate:    negate,
		}
		blinded = &BlindedMessage{c: c}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return key, blinded, nil
}

// Unblind turns the combined blinded signature into a BIP340 signature over
// the original message: s' = s + α, negated when the blinded nonce had odd
// Y. A zero result is degenerate and the request must be retried.
//
// The result is checked against the nonce and challenge fixed at blinding
// time. A blinded signature produced under a different session nonce fails
// with ErrSignatureVerificationFailed.
func Unblind(key *BlindingKey, sig *BlindedSignature) (*Signature, error) {
	if sig == nil || sig.s == nil {
		return nil, ErrUnexpectedZero.WithContext("value", "blinded signature")
	}
	s := sig.s.Add(key.alpha).conditionalNegate(key.negate)
	if err := s.nonZero("unblinded signature"); err != nil {
		return nil, err
	}
	if err := key.check(s); err != nil {
		return nil, err
	}
	return &Signature{R: key.nonceX, S: s}, nil
}

// check verifies s'·G == R' + e·X for the even-Y blinded nonce R' and joint
// key X.
func (bk *BlindingKey) check(s *Scalar) error {
	nonce, err := liftX(bk.nonceX)
	if err != nil {
		return err
	}
	publicKey, err := liftX(bk.keyX)
	if err != nil {
		return err
	}
	if !ScalarBaseMult(s).Equal(nonce.Add(publicKey.Mul(bk.challenge))) {
		return ErrSignatureVerificationFailed.WithDetails("blinded signature does not match the blinded nonce")
	}
	return nil
}
