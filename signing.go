package frost

import (
	"slices"
)

// SignatureShare is one signer's partial signature in a session.
type SignatureShare struct {
	Signer ParticipantIndex
	S      *Scalar
}

// SignSession binds the joint key, the signers' public nonces and the
// message (or blinded message) being signed. It is immutable once opened;
// any party can rebuild it from public data and verify shares with it.
type SignSession struct {
	jointKey  *JointKey
	nonces    map[ParticipantIndex]*PublicNonce
	signers   []ParticipantIndex
	lambdas   map[ParticipantIndex]*Scalar
	binding   *Scalar
	nonce     *Point
	challenge *Scalar

	// negateNonce is set in plain sessions whose aggregate nonce has odd Y.
	// Blind sessions never negate; the requester folds parity into the
	// blinded message instead.
	negateNonce bool
	blinded     bool
	message     []byte
}

// StartSignSession opens a session over message signed in the clear.
func StartSignSession(jointKey *JointKey, nonces map[ParticipantIndex]*PublicNonce, message []byte) (*SignSession, error) {
	s, err := newSignSession(jointKey, nonces, message)
	if err != nil {
		return nil, err
	}
	s.negateNonce = s.nonce.HasOddY()
	s.message = append([]byte(nil), message...)
	s.challenge = Challenge(s.nonce.XOnly(), jointKey.XOnly(), message)
	return s, nil
}

// SessionNonce returns the aggregate nonce R of a blind session over
// nonces. The coordinator hands it to the requester, who blinds against it.
func SessionNonce(jointKey *JointKey, nonces map[ParticipantIndex]*PublicNonce) (*Point, error) {
	s, err := newSignSession(jointKey, nonces, nil)
	if err != nil {
		return nil, err
	}
	return s.nonce, nil
}

// StartBlindSignSession opens a session whose challenge is the requester's
// blinded message. The signers never see the message itself.
func StartBlindSignSession(jointKey *JointKey, nonces map[ParticipantIndex]*PublicNonce, blinded *BlindedMessage) (*SignSession, error) {
	if blinded == nil || blinded.c == nil || blinded.c.IsZero() {
		return nil, ErrUnexpectedZero.WithContext("value", "blinded message")
	}
	s, err := newSignSession(jointKey, nonces, nil)
	if err != nil {
		return nil, err
	}
	s.blinded = true
	s.challenge = blinded.c.Copy()
	return s, nil
}

func newSignSession(jointKey *JointKey, nonces map[ParticipantIndex]*PublicNonce, message []byte) (*SignSession, error) {
	if err := jointKey.Validate(); err != nil {
		return nil, err
	}
	if len(nonces) < jointKey.Threshold {
		return nil, ErrInsufficientSigners.WithDetails("%d signers, threshold %d", len(nonces), jointKey.Threshold)
	}

	signers := sortedParticipants(nonces)
	if err := ValidateParticipants(signers, jointKey.Participants()); err != nil {
		return nil, err
	}
	sum1, sum2 := Identity(), Identity()
	for _, idx := range signers {
		nonce := nonces[idx]
		if err := nonce.Validate(); err != nil {
			return nil, ErrInvalidEncoding.WithContext(ContextSigner, idx).WithCause(err)
		}
		sum1 = sum1.Add(nonce.R1)
		sum2 = sum2.Add(nonce.R2)
	}

	xonly := jointKey.XOnly()
	transcript := [][]byte{xonly[:], pointOrZeroBytes(sum1), pointOrZeroBytes(sum2)}
	for _, idx := range signers {
		transcript = append(transcript, idx.bytes())
	}
	transcript = append(transcript, message)
	binding := hashToScalar(tagBinding, transcript...)

	nonce := sum1.Add(sum2.Mul(binding))
	if nonce.IsIdentity() {
		return nil, ErrDegenerateValue.WithContext("value", "aggregate nonce")
	}

	lambdas := make(map[ParticipantIndex]*Scalar, len(signers))
	for _, idx := range signers {
		lambda, err := LagrangeCoefficient(idx, signers)
		if err != nil {
			return nil, err
		}
		lambdas[idx] = lambda
	}

	copied := make(map[ParticipantIndex]*PublicNonce, len(nonces))
	for idx, n := range nonces {
		copied[idx] = n
	}

	return &SignSession{
		jointKey: jointKey,
		nonces:   copied,
		signers:  signers,
		lambdas:  lambdas,
		binding:  binding,
		nonce:    nonce,
	}, nil
}

func pointOrZeroBytes(p *Point) []byte {
	enc, err := p.Compressed()
	if err != nil {
		return make([]byte, PointSize)
	}
	return enc[:]
}

// Signers returns the participants of the session in ascending order.
func (s *SignSession) Signers() []ParticipantIndex {
	return slices.Clone(s.signers)
}

// Blinded reports whether the session signs a blinded message.
func (s *SignSession) Blinded() bool {
	return s.blinded
}

// Nonce returns the aggregate nonce R before any parity adjustment.
func (s *SignSession) Nonce() *Point {
	return s.nonce
}

// JointKey returns the key the session signs for.
func (s *SignSession) JointKey() *JointKey {
	return s.jointKey
}

// Message returns the message of a plain session.
func (s *SignSession) Message() []byte {
	return slices.Clone(s.message)
}

func (s *SignSession) contains(idx ParticipantIndex) bool {
	_, ok := s.nonces[idx]
	return ok
}

// Sign computes the signature share of participant. The secret nonce is
// consumed whether or not signing succeeds past the nonce check.
func (s *SignSession) Sign(participant ParticipantIndex, secretShare *Scalar, nonce *SecretNonce) (*SignatureShare, error) {
	if !s.contains(participant) {
		return nil, ErrUnknownSigner.WithContext(ContextSigner, participant)
	}
	if err := secretShare.nonZero("secret share"); err != nil {
		return nil, err
	}
	if nonce == nil || !nonce.Public().Equal(s.nonces[participant]) {
		return nil, ErrNonceMismatch.WithContext(ContextSigner, participant)
	}
	k1, k2, err := nonce.consume()
	if err != nil {
		return nil, err
	}
	defer k1.Zeroize()
	defer k2.Zeroize()

	// s_i = ±(k1 + b·k2) + c·λ_i·(±x_i)
	k := k1.Add(k2.Mul(s.binding)).conditionalNegate(s.negateNonce)
	x := secretShare.conditionalNegate(s.jointKey.needsNegation())
	share := k.Add(s.challenge.Mul(s.lambdas[participant]).Mul(x))
	k.Zeroize()
	x.Zeroize()

	return &SignatureShare{Signer: participant, S: share}, nil
}

// VerifyShare checks a share against the signer's verification share. An
// invalid share is reported with the signer and should be dropped; it does
// not invalidate the session.
func (s *SignSession) VerifyShare(share *SignatureShare) error {
	if share == nil || share.S == nil {
		return ErrInvalidSignatureShare.WithDetails("empty share")
	}
	if !s.contains(share.Signer) {
		return ErrUnknownSigner.WithContext(ContextSigner, share.Signer)
	}
	verificationShare, err := s.jointKey.VerificationShare(share.Signer)
	if err != nil {
		return err
	}

	nonce := s.nonces[share.Signer]
	// s_i·G == ±(R1_i + b·R2_i) + c·λ_i·(±X_i)
	r := nonce.R1.Add(nonce.R2.Mul(s.binding)).conditionalNegate(s.negateNonce)
	x := verificationShare.conditionalNegate(s.jointKey.needsNegation())
	expected := r.Add(x.Mul(s.challenge.Mul(s.lambdas[share.Signer])))

	if !ScalarBaseMult(share.S).Equal(expected) {
		shareVerifications.WithLabelValues("invalid").Inc()
		return ErrInvalidSignatureShare.WithContext(ContextSigner, share.Signer)
	}
	shareVerifications.WithLabelValues("valid").Inc()
	return nil
}
