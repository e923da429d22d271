package frost

import (
	"encoding/binary"
	"fmt"
	"io"
)

// JointKey is the federation's signing key: the aggregate public key and
// the verification share of every participant. It is created once at genesis
// and never changes.
type JointKey struct {
	Threshold          int
	PublicKey          *Point
	VerificationShares []*Point
}

// Participants returns the federation size n.
func (jk *JointKey) Participants() int {
	return len(jk.VerificationShares)
}

// XOnly returns the BIP340 x-only form of the public key.
func (jk *JointKey) XOnly() [XOnlySize]byte {
	return jk.PublicKey.XOnly()
}

// needsNegation reports whether the secret behind PublicKey must be negated
// to match the even-Y key BIP340 verifiers reconstruct from the x-only form.
func (jk *JointKey) needsNegation() bool {
	return jk.PublicKey.HasOddY()
}

// EvenPublicKey returns the even-Y point with the same x coordinate as the
// public key.
func (jk *JointKey) EvenPublicKey() *Point {
	return jk.PublicKey.conditionalNegate(jk.needsNegation())
}

// VerificationShare returns the verification share of participant.
func (jk *JointKey) VerificationShare(participant ParticipantIndex) (*Point, error) {
	if int(participant) >= len(jk.VerificationShares) {
		return nil, ErrInvalidParticipantID.WithContext(ContextParty, participant)
	}
	return jk.VerificationShares[participant], nil
}

// Validate checks the structural invariants of the key.
func (jk *JointKey) Validate() error {
	n := len(jk.VerificationShares)
	if jk.Threshold < 1 || jk.Threshold > n {
		return ErrInvalidThreshold.WithDetails("threshold %d with %d participants", jk.Threshold, n)
	}
	if jk.PublicKey.IsIdentity() {
		return ErrUnexpectedZero.WithContext("value", "joint public key")
	}
	for i, share := range jk.VerificationShares {
		if share.IsIdentity() {
			return ErrUnexpectedZero.WithContext(ContextParty, ParticipantIndex(i)).
				WithContext("value", "verification share")
		}
	}
	return nil
}

// VerifyShares checks that every window of threshold consecutive
// verification shares interpolates to the public key, i.e. that all shares
// lie on one polynomial of degree threshold-1.
func (jk *JointKey) VerifyShares() error {
	if err := jk.Validate(); err != nil {
		return err
	}
	for start := 0; start+jk.Threshold <= len(jk.VerificationShares); start++ {
		window := make(map[ParticipantIndex]*Point, jk.Threshold)
		for i := start; i < start+jk.Threshold; i++ {
			window[ParticipantIndex(i)] = jk.VerificationShares[i]
		}
		key, err := InterpolatePoint(window)
		if err != nil {
			return err
		}
		if !key.Equal(jk.PublicKey) {
			return ErrInvalidShare.WithContext(ContextParty, ParticipantIndex(start)).
				WithDetails("verification shares %d..%d do not match the joint public key", start, start+jk.Threshold-1)
		}
	}
	return nil
}

// Equal compares two joint keys.
func (jk *JointKey) Equal(other *JointKey) bool {
	if jk.Threshold != other.Threshold || len(jk.VerificationShares) != len(other.VerificationShares) {
		return false
	}
	if !jk.PublicKey.Equal(other.PublicKey) {
		return false
	}
	for i := range jk.VerificationShares {
		if !jk.VerificationShares[i].Equal(other.VerificationShares[i]) {
			return false
		}
	}
	return true
}

// KeyGen holds the public state every party derives once all n commitments
// are known.
type KeyGen struct {
	commitments []PublicCommitment
	jointKey    *JointKey
	id          [32]byte
}

// NewKeyGen aggregates the commitments of all parties, indexed by
// participant. All commitments must have the same threshold t ≤ n.
func NewKeyGen(commitments []PublicCommitment) (*KeyGen, error) {
	n := len(commitments)
	if n == 0 {
		return nil, ErrInsufficientCommitments.WithDetails("no commitments")
	}
	t := commitments[0].Threshold()
	if t < 1 || t > n {
		return nil, ErrInvalidThreshold.WithDetails("threshold %d with %d participants", t, n)
	}

	transcript := make([][]byte, 0, 2+n*t)
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(t))
	binary.BigEndian.PutUint32(header[4:], uint32(n))
	transcript = append(transcript, header[:])

	for i, c := range commitments {
		if c.Threshold() != t {
			return nil, ErrInvalidThreshold.WithContext(ContextParty, ParticipantIndex(i)).
				WithDetails("commitment has %d coefficients, expected %d", c.Threshold(), t)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("commitment of party %d: %w", i, err)
		}
		for _, p := range c {
			enc, _ := p.Compressed()
			transcript = append(transcript, enc[:])
		}
	}

	publicKey := Identity()
	for _, c := range commitments {
		publicKey = publicKey.Add(c.PublicKey())
	}
	if publicKey.IsIdentity() {
		return nil, ErrDegenerateValue.WithContext("value", "joint public key")
	}

	shares := make([]*Point, n)
	for i := range shares {
		x := ParticipantIndex(i).ToScalar()
		share := Identity()
		for _, c := range commitments {
			share = share.Add(c.Evaluate(x))
		}
		if share.IsIdentity() {
			return nil, ErrDegenerateValue.WithContext(ContextParty, ParticipantIndex(i)).
				WithContext("value", "verification share")
		}
		shares[i] = share
	}

	return &KeyGen{
		commitments: commitments,
		jointKey: &JointKey{
			Threshold:          t,
			PublicKey:          publicKey,
			VerificationShares: shares,
		},
		id: taggedHash(tagKeygenID, transcript...),
	}, nil
}

// ID identifies this key generation run; proofs of possession sign it.
func (kg *KeyGen) ID() [32]byte {
	return kg.id
}

// JointKey returns the key this run will produce.
func (kg *KeyGen) JointKey() *JointKey {
	return kg.jointKey
}

// Participants returns n.
func (kg *KeyGen) Participants() int {
	return len(kg.commitments)
}

// CreateShares evaluates the polynomial of party at every participant and
// proves possession of its constant term.
func (kg *KeyGen) CreateShares(rng io.Reader, party ParticipantIndex, poly *SecretPolynomial) ([]*Scalar, *ProofOfPossession, error) {
	if int(party) >= len(kg.commitments) {
		return nil, nil, ErrInvalidParticipantID.WithContext(ContextParty, party)
	}
	if !poly.Commitment().Equal(kg.commitments[party]) {
		return nil, nil, ErrConfigurationMismatch.WithContext(ContextParty, party).
			WithDetails("polynomial does not match the published commitment")
	}

	shares := make([]*Scalar, len(kg.commitments))
	for i := range shares {
		shares[i] = poly.Evaluate(ParticipantIndex(i).ToScalar())
	}

	pop, err := NewProofOfPossession(rng, kg.id, party, poly.secret())
	if err != nil {
		return nil, nil, err
	}
	return shares, pop, nil
}

// FinishKeyGen verifies the shares and proofs addressed to party (indexed by
// sender) and returns its final secret share with the joint key. Any failure
// is fatal for the whole run.
func (kg *KeyGen) FinishKeyGen(party ParticipantIndex, shares []*Scalar, proofs []*ProofOfPossession) (*Scalar, *JointKey, error) {
	n := len(kg.commitments)
	if int(party) >= n {
		return nil, nil, ErrInvalidParticipantID.WithContext(ContextParty, party)
	}
	if len(shares) != n || len(proofs) != n {
		return nil, nil, ErrInsufficientShares.WithDetails("got %d shares and %d proofs, need %d of each", len(shares), len(proofs), n)
	}

	for sender, proof := range proofs {
		from := ParticipantIndex(sender)
		if !proof.Verify(kg.id, from, kg.commitments[sender].PublicKey()) {
			return nil, nil, ErrInvalidProofOfPossession.WithContext(ContextParty, from)
		}
	}

	secret := new(Scalar)
	for sender, share := range shares {
		if share == nil || !kg.commitments[sender].VerifyShare(party, share) {
			secret.Zeroize()
			return nil, nil, ErrInvalidShare.WithContext(ContextParty, ParticipantIndex(sender))
		}
		secret = secret.Add(share)
	}

	if err := secret.nonZero("final secret share"); err != nil {
		return nil, nil, err
	}
	if !ScalarBaseMult(secret).Equal(kg.jointKey.VerificationShares[party]) {
		secret.Zeroize()
		return nil, nil, ErrInvalidState.WithContext(ContextParty, party).
			WithDetails("final secret share does not match the verification share")
	}
	return secret, kg.jointKey, nil
}
