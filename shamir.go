package frost

import (
	"fmt"
)

// LagrangeCoefficient returns the Lagrange basis polynomial of participant
// evaluated at zero over the evaluation points of signers:
// λ_i = Π_{j≠i} x_j / (x_j - x_i).
func LagrangeCoefficient(participant ParticipantIndex, signers []ParticipantIndex) (*Scalar, error) {
	xi := participant.ToScalar()
	numerator := NewScalarFromUint32(1)
	denominator := NewScalarFromUint32(1)

	found := false
	for _, signer := range signers {
		if signer == participant {
			if found {
				return nil, ErrDuplicateParticipants.WithContext(ContextParty, signer)
			}
			found = true
			continue
		}
		xj := signer.ToScalar()
		numerator = numerator.Mul(xj)
		denominator = denominator.Mul(xj.Sub(xi))
	}
	if !found {
		return nil, ErrInvalidParticipantID.WithContext(ContextParty, participant).
			WithDetails("participant is not among the interpolation points")
	}

	inv, err := denominator.Invert()
	if err != nil {
		return nil, fmt.Errorf("failed to invert denominator: %w", err)
	}
	return numerator.Mul(inv), nil
}

// InterpolateSecret reconstructs f(0) from shares f(i+1). It exists for
// simulations and tests; no deployed process ever holds enough shares.
func InterpolateSecret(shares map[ParticipantIndex]*Scalar) (*Scalar, error) {
	signers := sortedParticipants(shares)
	secret := new(Scalar)
	for _, idx := range signers {
		lambda, err := LagrangeCoefficient(idx, signers)
		if err != nil {
			return nil, err
		}
		secret = secret.Add(shares[idx].Mul(lambda))
	}
	return secret, nil
}

// InterpolatePoint reconstructs f(0)·G from the points f(i+1)·G.
func InterpolatePoint(points map[ParticipantIndex]*Point) (*Point, error) {
	signers := sortedParticipants(points)
	result := Identity()
	for _, idx := range signers {
		lambda, err := LagrangeCoefficient(idx, signers)
		if err != nil {
			return nil, err
		}
		result = result.Add(points[idx].Mul(lambda))
	}
	return result, nil
}
