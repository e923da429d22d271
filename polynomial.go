package frost

import (
	"fmt"
	"io"
)

// SecretPolynomial is one party's key generation contribution: t random
// coefficients whose constant term is the party's secret contribution to the
// joint key.
type SecretPolynomial struct {
	coefficients []*Scalar
}

// NewSecretPolynomial creates a random polynomial of degree threshold-1.
func NewSecretPolynomial(rng io.Reader, threshold int) (*SecretPolynomial, error) {
	if threshold < 1 {
		return nil, ErrInvalidThreshold.WithDetails("threshold must be at least 1, got %d", threshold)
	}

	coefficients := make([]*Scalar, threshold)
	for i := range coefficients {
		coeff, err := RandomScalar(rng)
		if err != nil {
			return nil, fmt.Errorf("failed to generate coefficient %d: %w", i, err)
		}
		coefficients[i] = coeff
	}

	return &SecretPolynomial{coefficients: coefficients}, nil
}

// Evaluate evaluates the polynomial at x with Horner's method.
func (p *SecretPolynomial) Evaluate(x *Scalar) *Scalar {
	if len(p.coefficients) == 0 {
		return new(Scalar)
	}

	// f(x) = a0 + x(a1 + x(a2 + ...))
	result := p.coefficients[len(p.coefficients)-1].Copy()
	for i := len(p.coefficients) - 2; i >= 0; i-- {
		result = result.Mul(x).Add(p.coefficients[i])
	}
	return result
}

// Threshold returns the number of coefficients.
func (p *SecretPolynomial) Threshold() int {
	return len(p.coefficients)
}

// secret returns the constant term.
func (p *SecretPolynomial) secret() *Scalar {
	return p.coefficients[0]
}

// Commitment returns the public commitment to every coefficient.
func (p *SecretPolynomial) Commitment() PublicCommitment {
	commitment := make(PublicCommitment, len(p.coefficients))
	for i, coeff := range p.coefficients {
		commitment[i] = ScalarBaseMult(coeff)
	}
	return commitment
}

// Zeroize securely clears the polynomial coefficients
func (p *SecretPolynomial) Zeroize() {
	ZeroizeScalarSlice(p.coefficients)
	for i := range p.coefficients {
		p.coefficients[i] = nil
	}
	p.coefficients = nil
}
