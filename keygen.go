package frost

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// KeygenRound1 carries a party's polynomial commitment to every other party.
type KeygenRound1 struct {
	ParticipantID ParticipantIndex
	Commitment    PublicCommitment
}

// KeygenRound2 carries the share one party computed for one recipient plus
// the sender's proof of possession. The transport must keep it confidential
// and authenticated.
type KeygenRound2 struct {
	ParticipantID ParticipantIndex
	Recipient     ParticipantIndex
	Share         *Scalar
	Proof         *ProofOfPossession
}

// KeygenResult contains the final key generation result
type KeygenResult struct {
	ParticipantID ParticipantIndex
	SecretShare   *Scalar
	JointKey      *JointKey
}

// Zeroize securely clears the secret share
func (r *KeygenResult) Zeroize() {
	r.SecretShare.Zeroize()
}

type keygenState int

const (
	keygenCreated keygenState = iota
	keygenCommitted
	keygenSharing
	keygenFinished
	keygenAborted
)

// KeygenOption configures a KeygenSession.
type KeygenOption func(*KeygenSession)

// WithKeygenRandomness sets the randomness source.
func WithKeygenRandomness(rng io.Reader) KeygenOption {
	return func(ks *KeygenSession) { ks.rng = rng }
}

// WithKeygenLogger sets the logger.
func WithKeygenLogger(logger logrus.FieldLogger) KeygenOption {
	return func(ks *KeygenSession) { ks.logger = logger }
}

// WithKeygenAudit sets the audit handler.
func WithKeygenAudit(handler AuditEventHandler) KeygenOption {
	return func(ks *KeygenSession) { ks.audit = handler }
}

// KeygenSession is one party's view of a distributed key generation run.
// Messages from peers may arrive concurrently and in any order within a
// round. A round-2 share may also arrive before this party has run Round2
// itself; it is held until Round2 and verified in Finish. Partial state is
// never persisted; Abort discards it.
type KeygenSession struct {
	mu sync.Mutex

	participantID ParticipantIndex
	participants  int
	threshold     int

	rng    io.Reader
	logger logrus.FieldLogger
	audit  AuditEventHandler

	state      keygenState
	polynomial *SecretPolynomial

	commitments         []PublicCommitment
	commitmentsReceived int
	keygen              *KeyGen

	shares         []*Scalar
	proofs         []*ProofOfPossession
	sharesReceived int
}

// NewKeygenSession creates a new keygen session
func NewKeygenSession(participantID ParticipantIndex, participants, threshold int, opts ...KeygenOption) (*KeygenSession, error) {
	if threshold < 1 {
		return nil, ErrInvalidThreshold.WithDetails("threshold must be at least 1")
	}
	if threshold > participants {
		return nil, ErrThresholdTooHigh.WithDetails("threshold %d exceeds participant count %d", threshold, participants)
	}
	if int(participantID) >= participants {
		return nil, ErrInvalidParticipantID.WithContext(ContextParty, participantID)
	}

	ks := &KeygenSession{
		participantID: participantID,
		participants:  participants,
		threshold:     threshold,
		rng:           SecureRandom,
		logger:        logrus.StandardLogger(),
		audit:         &NullAuditHandler{},
		commitments:   make([]PublicCommitment, participants),
		shares:        make([]*Scalar, participants),
		proofs:        make([]*ProofOfPossession, participants),
	}
	for _, opt := range opts {
		opt(ks)
	}
	ks.logger = ks.logger.WithField("party", participantID)
	return ks, nil
}

// Round1 samples the secret polynomial and returns its commitment for
// broadcast.
func (ks *KeygenSession) Round1() (*KeygenRound1, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.state != keygenCreated {
		return nil, ErrInvalidState.WithDetails("Round1 already called")
	}

	polynomial, err := NewSecretPolynomial(ks.rng, ks.threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to generate polynomial: %w", err)
	}
	ks.polynomial = polynomial
	commitment := polynomial.Commitment()

	ks.state = keygenCommitted
	ks.audit.OnKeyGen(NewAuditEventBuilder(AuditEventKeyGenStarted, ReasonGenesis).
		WithParticipant(ks.participantID).
		WithThreshold(ks.threshold, ks.participants).
		Build())
	ks.logger.WithField("threshold", ks.threshold).Debug("published key generation commitment")

	// Our own commitment counts as received.
	if err := ks.storeCommitment(ks.participantID, commitment); err != nil {
		return nil, err
	}

	return &KeygenRound1{ParticipantID: ks.participantID, Commitment: commitment}, nil
}

// ProcessRound1 records one peer's commitment. It reports whether every
// commitment has now been received.
func (ks *KeygenSession) ProcessRound1(msg *KeygenRound1) (bool, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.state == keygenAborted {
		return false, ErrKeyGenAborted
	}
	if ks.state != keygenCommitted {
		return false, ErrInvalidState.WithDetails("Round1 must be called before ProcessRound1")
	}
	if err := ks.storeCommitment(msg.ParticipantID, msg.Commitment); err != nil {
		return false, ks.abortLocked(err)
	}
	return ks.commitmentsReceived == ks.participants, nil
}

func (ks *KeygenSession) storeCommitment(from ParticipantIndex, commitment PublicCommitment) error {
	if int(from) >= ks.participants {
		return ErrInvalidParticipantID.WithContext(ContextParty, from)
	}
	if commitment.Threshold() != ks.threshold {
		return ErrInvalidThreshold.WithContext(ContextParty, from).
			WithDetails("commitment has %d coefficients, expected %d", commitment.Threshold(), ks.threshold)
	}
	if err := commitment.Validate(); err != nil {
		return fmt.Errorf("commitment from party %d: %w", from, err)
	}
	if existing := ks.commitments[from]; existing != nil {
		if existing.Equal(commitment) {
			return nil
		}
		return ErrDuplicateParticipants.WithContext(ContextParty, from).
			WithDetails("conflicting commitments")
	}
	ks.commitments[from] = commitment
	ks.commitmentsReceived++
	return nil
}

// Round2 derives the key generation id once every commitment is known and
// returns one message per recipient, ours included.
func (ks *KeygenSession) Round2() ([]*KeygenRound2, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.state == keygenAborted {
		return nil, ErrKeyGenAborted
	}
	if ks.state != keygenCommitted {
		return nil, ErrInvalidState.WithDetails("Round2 called out of order")
	}
	if ks.commitmentsReceived != ks.participants {
		return nil, ErrInsufficientCommitments.WithDetails("have %d of %d commitments", ks.commitmentsReceived, ks.participants)
	}

	keygen, err := NewKeyGen(ks.commitments)
	if err != nil {
		return nil, ks.abortLocked(err)
	}
	ks.keygen = keygen

	shares, proof, err := keygen.CreateShares(ks.rng, ks.participantID, ks.polynomial)
	if err != nil {
		return nil, ks.abortLocked(err)
	}
	ks.polynomial.Zeroize()
	ks.polynomial = nil

	messages := make([]*KeygenRound2, len(shares))
	for i, share := range shares {
		messages[i] = &KeygenRound2{
			ParticipantID: ks.participantID,
			Recipient:     ParticipantIndex(i),
			Share:         share,
			Proof:         proof,
		}
	}
	ks.state = keygenSharing
	ks.logger.Debug("derived key generation shares")

	if _, err := ks.storeShare(messages[ks.participantID]); err != nil {
		return nil, ks.abortLocked(err)
	}
	return messages, nil
}

// ProcessRound2 records one share addressed to this party. It reports
// whether every share has now been received. Shares arriving after Round1
// but before Round2 are kept; our own share completes the set.
func (ks *KeygenSession) ProcessRound2(msg *KeygenRound2) (bool, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.state == keygenAborted {
		return false, ErrKeyGenAborted
	}
	if ks.state != keygenCommitted && ks.state != keygenSharing {
		return false, ErrInvalidState.WithDetails("Round1 must be called before ProcessRound2")
	}
	ready, err := ks.storeShare(msg)
	if err != nil {
		return false, ks.abortLocked(err)
	}
	return ready, nil
}

func (ks *KeygenSession) storeShare(msg *KeygenRound2) (bool, error) {
	if msg.Recipient != ks.participantID {
		return false, ErrInvalidParticipantID.WithContext(ContextParty, msg.ParticipantID).
			WithDetails("share addressed to party %d", msg.Recipient)
	}
	if int(msg.ParticipantID) >= ks.participants {
		return false, ErrInvalidParticipantID.WithContext(ContextParty, msg.ParticipantID)
	}
	if msg.Share == nil || msg.Proof == nil {
		return false, ErrInsufficientShares.WithContext(ContextParty, msg.ParticipantID)
	}
	if ks.shares[msg.ParticipantID] != nil {
		if ks.shares[msg.ParticipantID].Equal(msg.Share) {
			return ks.sharesReceived == ks.participants, nil
		}
		return false, ErrDuplicateParticipants.WithContext(ContextParty, msg.ParticipantID).
			WithDetails("conflicting shares")
	}
	ks.shares[msg.ParticipantID] = msg.Share
	ks.proofs[msg.ParticipantID] = msg.Proof
	ks.sharesReceived++
	return ks.sharesReceived == ks.participants, nil
}

// Finish verifies every proof and share and returns the final secret share.
// A failure aborts the run; the federation must restart key generation
// without the blamed party.
func (ks *KeygenSession) Finish() (*KeygenResult, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.state == keygenAborted {
		return nil, ErrKeyGenAborted
	}
	if ks.state != keygenSharing {
		return nil, ErrInvalidState.WithDetails("Finish called out of order")
	}
	if ks.sharesReceived != ks.participants {
		return nil, ks.abortLocked(ErrInsufficientShares.WithDetails("have %d of %d shares", ks.sharesReceived, ks.participants))
	}

	secret, jointKey, err := ks.keygen.FinishKeyGen(ks.participantID, ks.shares, ks.proofs)
	if err != nil {
		return nil, ks.abortLocked(err)
	}
	ks.clearLocked()
	ks.state = keygenFinished

	keygenRuns.WithLabelValues("success").Inc()
	ks.audit.OnKeyGen(NewAuditEventBuilder(AuditEventKeyGenCompleted, ReasonGenesis).
		WithParticipant(ks.participantID).
		WithThreshold(jointKey.Threshold, jointKey.Participants()).
		Build())
	ks.logger.Info("key generation finished")

	return &KeygenResult{
		ParticipantID: ks.participantID,
		SecretShare:   secret,
		JointKey:      jointKey,
	}, nil
}

// Abort discards all partial state. Later calls fail with ErrKeyGenAborted.
func (ks *KeygenSession) Abort(reason error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.state == keygenFinished || ks.state == keygenAborted {
		return
	}
	if reason == nil {
		reason = ErrKeyGenAborted
	}
	ks.abortLocked(reason)
}

func (ks *KeygenSession) abortLocked(reason error) error {
	ks.clearLocked()
	ks.state = keygenAborted
	keygenRuns.WithLabelValues("aborted").Inc()

	ks.audit.OnKeyGen(NewAuditEventBuilder(AuditEventKeyGenAborted, ReasonProtocolViolation).
		WithParticipant(ks.participantID).
		WithThreshold(ks.threshold, ks.participants).
		WithError(reason).
		Build())
	ks.logger.WithError(reason).Error("key generation aborted")
	return reason
}

func (ks *KeygenSession) clearLocked() {
	if ks.polynomial != nil {
		ks.polynomial.Zeroize()
		ks.polynomial = nil
	}
	ZeroizeScalarSlice(ks.shares)
	for i := range ks.shares {
		ks.shares[i] = nil
		ks.proofs[i] = nil
	}
	ks.sharesReceived = 0
	ks.keygen = nil
}
