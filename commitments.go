package frost

// PublicCommitment is a secret polynomial made public: coefficient i maps to
// the point a_i·G. It is broadcast once per key generation run.
type PublicCommitment []*Point

// Threshold returns the number of committed coefficients.
func (c PublicCommitment) Threshold() int {
	return len(c)
}

// PublicKey returns the commitment to the constant term.
func (c PublicCommitment) PublicKey() *Point {
	if len(c) == 0 {
		return Identity()
	}
	return c[0]
}

// Evaluate returns f(x)·G for the committed polynomial f, computed with
// Horner's method over points.
func (c PublicCommitment) Evaluate(x *Scalar) *Point {
	if len(c) == 0 {
		return Identity()
	}
	result := c[len(c)-1]
	for i := len(c) - 2; i >= 0; i-- {
		result = result.Mul(x).Add(c[i])
	}
	return result
}

// VerifyShare reports whether share is the committed polynomial evaluated at
// the given participant.
func (c PublicCommitment) VerifyShare(recipient ParticipantIndex, share *Scalar) bool {
	return ScalarBaseMult(share).Equal(c.Evaluate(recipient.ToScalar()))
}

// Validate rejects empty commitments and commitments holding the identity.
func (c PublicCommitment) Validate() error {
	if len(c) == 0 {
		return ErrInvalidThreshold.WithDetails("empty commitment")
	}
	for i, p := range c {
		if p.IsIdentity() {
			return ErrUnexpectedZero.WithDetails("commitment coefficient %d is the identity", i)
		}
	}
	return nil
}

// Equal compares two commitments point by point.
func (c PublicCommitment) Equal(other PublicCommitment) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
