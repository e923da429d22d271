package frost

import (
	"time"
)

// combine sums the shares of every session signer. The per-signer Lagrange
// weights are already folded into the shares. Callers are expected to have
// verified each share with VerifyShare; the structural checks here reject
// rather than miscompute on malformed input.
func (s *SignSession) combine(shares []*SignatureShare) (*Scalar, error) {
	if len(shares) < s.jointKey.Threshold {
		return nil, ErrInsufficientSignatureShares.WithDetails("%d shares, threshold %d", len(shares), s.jointKey.Threshold)
	}

	seen := make(map[ParticipantIndex]struct{}, len(shares))
	sum := new(Scalar)
	for _, share := range shares {
		if share == nil || share.S == nil {
			return nil, ErrInvalidSignatureShare.WithDetails("empty share")
		}
		if _, dup := seen[share.Signer]; dup {
			return nil, ErrDuplicateShare.WithContext(ContextSigner, share.Signer)
		}
		if !s.contains(share.Signer) {
			return nil, ErrUnknownSigner.WithContext(ContextSigner, share.Signer)
		}
		seen[share.Signer] = struct{}{}
		sum = sum.Add(share.S)
	}

	for _, idx := range s.signers {
		if _, ok := seen[idx]; !ok {
			return nil, ErrMissingShares.WithContext(ContextSigner, idx)
		}
	}

	if err := sum.nonZero("combined signature"); err != nil {
		return nil, err
	}
	return sum, nil
}

// verifyCombined checks s·G == R + c·X for the even-Y joint key X.
func (s *SignSession) verifyCombined(sum *Scalar) bool {
	r := s.nonce.conditionalNegate(s.negateNonce)
	expected := r.Add(s.jointKey.EvenPublicKey().Mul(s.challenge))
	return ScalarBaseMult(sum).Equal(expected)
}

// CombineSignature combines the shares of a plain session into a BIP340
// signature under the joint key. A degenerate result means the session must
// be rerun with fresh nonces.
func CombineSignature(session *SignSession, shares []*SignatureShare) (*Signature, error) {
	if session.blinded {
		return nil, ErrSessionMode.WithDetails("session signs a blinded message")
	}
	defer observeCombine(time.Now())

	sum, err := session.combine(shares)
	if err != nil {
		return nil, err
	}
	if !session.verifyCombined(sum) {
		return nil, ErrSignatureVerificationFailed.WithDetails("combined shares do not form a valid signature")
	}

	signaturesCombined.WithLabelValues("plain").Inc()
	return &Signature{R: session.nonce.XOnly(), S: sum}, nil
}

// CombineBlindedSignature combines the shares of a blind session. The
// requester unblinds the result with its BlindingKey.
func CombineBlindedSignature(session *SignSession, shares []*SignatureShare) (*BlindedSignature, error) {
	if !session.blinded {
		return nil, ErrSessionMode.WithDetails("session signs a plain message")
	}
	defer observeCombine(time.Now())

	sum, err := session.combine(shares)
	if err != nil {
		return nil, err
	}
	if !session.verifyCombined(sum) {
		return nil, ErrSignatureVerificationFailed.WithDetails("combined shares do not form a valid blinded signature")
	}

	signaturesCombined.WithLabelValues("blind").Inc()
	return &BlindedSignature{s: sum}, nil
}

func observeCombine(start time.Time) {
	combineSeconds.Observe(time.Since(start).Seconds())
}
