package frost

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/require"

	"github.com/minimint/frost/internal/testrand"
)

// groupOrder is n, the order of the secp256k1 group.
var groupOrder = []byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
	0xba, 0xae, 0xdc, 0xe6, 0xaf, 0x48, 0xa0, 0x3b,
	0xbf, 0xd2, 0x5e, 0x8c, 0xd0, 0x36, 0x41, 0x41,
}

func TestScalarArithmetic(t *testing.T) {
	a, b := testScalar(t, "a"), testScalar(t, "b")

	require.True(t, a.Add(b).Sub(b).Equal(a))
	require.True(t, a.Mul(b).Equal(b.Mul(a)))
	require.True(t, a.Add(a.Negate()).IsZero())

	inv, err := a.Invert()
	require.NoError(t, err)
	require.True(t, a.Mul(inv).Equal(NewScalarFromUint32(1)))

	_, err = new(Scalar).Invert()
	require.ErrorIs(t, err, ErrDegenerateValue)

	c := a.Copy()
	c.Zeroize()
	require.True(t, c.IsZero())
	require.False(t, a.IsZero(), "zeroizing a copy must not touch the original")
}

func TestScalarFromBytes(t *testing.T) {
	_, err := ScalarFromBytes(groupOrder)
	require.ErrorIs(t, err, ErrInvalidEncoding)

	belowOrder := bytes.Clone(groupOrder)
	belowOrder[31]--
	s, err := ScalarFromBytes(belowOrder)
	require.NoError(t, err)
	require.True(t, s.Add(NewScalarFromUint32(1)).IsZero())

	zero, err := ScalarFromBytes(make([]byte, ScalarSize))
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	_, err = ScalarFromBytes(make([]byte, ScalarSize-1))
	require.ErrorIs(t, err, ErrTruncatedInput)
}

func TestRandomScalar(t *testing.T) {
	a, err := RandomScalar(testrand.New(t.Name()))
	require.NoError(t, err)
	b, err := RandomScalar(testrand.New(t.Name()))
	require.NoError(t, err)
	require.True(t, a.Equal(b), "same seed must give the same scalar")
	require.False(t, a.IsZero())

	// a source yielding only zeros can never produce a valid scalar
	_, err = RandomScalar(bytes.NewReader(make([]byte, ScalarSize*maxScalarAttempts)))
	require.ErrorIs(t, err, ErrRandomnessGeneration)

	_, err = RandomScalar(&testrand.Failing{N: 10, Err: bytes.ErrTooLarge})
	require.ErrorIs(t, err, ErrRandomnessGeneration)
}

func TestPointArithmetic(t *testing.T) {
	a, b := testScalar(t, "a"), testScalar(t, "b")
	A, B := ScalarBaseMult(a), ScalarBaseMult(b)

	require.True(t, A.Add(B).Equal(ScalarBaseMult(a.Add(b))))
	require.True(t, A.Mul(b).Equal(B.Mul(a)))
	require.True(t, A.Sub(A).IsIdentity())
	require.True(t, A.Add(Identity()).Equal(A))
	require.True(t, Identity().Add(A).Equal(A))
	require.True(t, A.Mul(new(Scalar)).IsIdentity())
	require.True(t, ScalarBaseMult(NewScalarFromUint32(1)).Equal(Generator()))

	require.NotEqual(t, A.HasOddY(), A.Negate().HasOddY())
	require.Equal(t, A.XOnly(), A.Negate().XOnly())
	require.False(t, Identity().HasOddY())
}

func TestPointEncoding(t *testing.T) {
	A := ScalarBaseMult(testScalar(t))
	enc, err := A.Compressed()
	require.NoError(t, err)

	decoded, err := PointFromBytes(enc[:])
	require.NoError(t, err)
	require.True(t, decoded.Equal(A))

	_, err = Identity().Compressed()
	require.ErrorIs(t, err, ErrUnexpectedZero)

	uncompressed := A.inner.SerializeUncompressed()
	_, err = PointFromBytes(uncompressed[:PointSize])
	require.ErrorIs(t, err, ErrInvalidEncoding)

	// x above the field prime
	overflow := bytes.Repeat([]byte{0xff}, PointSize)
	overflow[0] = 0x02
	_, err = PointFromBytes(overflow)
	require.ErrorIs(t, err, ErrInvalidEncoding)

	_, err = PointFromBytes(enc[:PointSize-1])
	require.ErrorIs(t, err, ErrTruncatedInput)
}

func TestChallengeMatchesBIP340(t *testing.T) {
	secret := testScalar(t)
	secretBytes := secret.Bytes()
	priv, pub := btcec.PrivKeyFromBytes(secretBytes[:])

	digest := taggedHash([]byte("test"), []byte("message"))
	sig, err := schnorr.Sign(priv, digest[:])
	require.NoError(t, err)

	parsed, err := SignatureFromBytes(sig.Serialize())
	require.NoError(t, err)
	require.True(t, parsed.Verify(PointFromPublicKey(pub), digest[:]))
	require.True(t, VerifySchnorr(parsed, PointFromPublicKey(pub), digest))

	digest[0] ^= 1
	require.False(t, parsed.Verify(PointFromPublicKey(pub), digest[:]))
}

func TestLagrangeCoefficients(t *testing.T) {
	signers := participants(0, 2, 5)
	sum := new(Scalar)
	for _, idx := range signers {
		lambda, err := LagrangeCoefficient(idx, signers)
		require.NoError(t, err)
		sum = sum.Add(lambda)
	}
	// the basis polynomials of a constant sum to one
	require.True(t, sum.Equal(NewScalarFromUint32(1)))

	_, err := LagrangeCoefficient(1, signers)
	require.ErrorIs(t, err, ErrInvalidParticipantID)
	_, err = LagrangeCoefficient(2, participants(0, 2, 2))
	require.ErrorIs(t, err, ErrDuplicateParticipants)
}

func TestPolynomialInterpolation(t *testing.T) {
	rng := testrand.New(t.Name())
	for _, threshold := range []int{1, 2, 5} {
		poly, err := NewSecretPolynomial(rng, threshold)
		require.NoError(t, err)
		commitment := poly.Commitment()
		require.NoError(t, commitment.Validate())
		require.True(t, commitment.PublicKey().Equal(ScalarBaseMult(poly.secret())))

		shares := make(map[ParticipantIndex]*Scalar)
		points := make(map[ParticipantIndex]*Point)
		for i := 0; i < threshold+2; i++ {
			idx := ParticipantIndex(i)
			share := poly.Evaluate(idx.ToScalar())
			require.True(t, commitment.VerifyShare(idx, share))
			if threshold > 1 {
				require.False(t, commitment.VerifyShare(idx+1, share))
			}
			if i >= 2 {
				shares[idx] = share
				points[idx] = ScalarBaseMult(share)
			}
		}

		secret, err := InterpolateSecret(shares)
		require.NoError(t, err)
		require.True(t, secret.Equal(poly.secret()))

		point, err := InterpolatePoint(points)
		require.NoError(t, err)
		require.True(t, point.Equal(commitment.PublicKey()))

		poly.Zeroize()
		require.Zero(t, poly.Threshold())
	}

	_, err := NewSecretPolynomial(rng, 0)
	require.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestTooFewSharesDoNotInterpolate(t *testing.T) {
	poly, err := NewSecretPolynomial(testrand.New(t.Name()), 3)
	require.NoError(t, err)

	shares := map[ParticipantIndex]*Scalar{
		0: poly.Evaluate(ParticipantIndex(0).ToScalar()),
		1: poly.Evaluate(ParticipantIndex(1).ToScalar()),
	}
	secret, err := InterpolateSecret(shares)
	require.NoError(t, err)
	require.False(t, secret.Equal(poly.secret()))
}
