package frost

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minimint/frost/internal/testrand"
)

// recordingAudit collects audit events for assertions.
type recordingAudit struct {
	mu      sync.Mutex
	keygen  []*AuditEvent
	signing []*AuditEvent
	errors  []*AuditEvent
}

func (r *recordingAudit) OnKeyGen(event *AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keygen = append(r.keygen, event)
}

func (r *recordingAudit) OnSigning(event *AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signing = append(r.signing, event)
}

func (r *recordingAudit) OnError(event *AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, event)
}

func (r *recordingAudit) keygenEvents() []*AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*AuditEvent(nil), r.keygen...)
}

// keygenRun drives n sessions through both rounds by hand so tests can
// tamper with messages in between.
type keygenRun struct {
	sessions []*KeygenSession
	round1   []*KeygenRound1
	round2   [][]*KeygenRound2
}

func newKeygenRun(t *testing.T, threshold, n int, opts ...KeygenOption) *keygenRun {
	t.Helper()
	rng := testrand.New(t.Name(), threshold, n)
	run := &keygenRun{
		sessions: make([]*KeygenSession, n),
		round1:   make([]*KeygenRound1, n),
		round2:   make([][]*KeygenRound2, n),
	}
	for i := range run.sessions {
		all := append([]KeygenOption{WithKeygenRandomness(rng), WithKeygenLogger(quietLogger())}, opts...)
		session, err := NewKeygenSession(ParticipantIndex(i), n, threshold, all...)
		require.NoError(t, err)
		run.sessions[i] = session

		msg, err := session.Round1()
		require.NoError(t, err)
		run.round1[i] = msg
	}
	return run
}

func (r *keygenRun) exchangeCommitments(t *testing.T) {
	t.Helper()
	for i, session := range r.sessions {
		for j, msg := range r.round1 {
			if i == j {
				continue
			}
			_, err := session.ProcessRound1(msg)
			require.NoError(t, err)
		}
	}
	for i, session := range r.sessions {
		msgs, err := session.Round2()
		require.NoError(t, err)
		r.round2[i] = msgs
	}
}

// deliverShares hands every share to its recipient and returns the first
// error each recipient saw.
func (r *keygenRun) deliverShares() []error {
	errs := make([]error, len(r.sessions))
	for i, session := range r.sessions {
		for j := range r.sessions {
			if i == j {
				continue
			}
			if _, err := session.ProcessRound2(r.round2[j][i]); err != nil && errs[i] == nil {
				errs[i] = err
			}
		}
	}
	return errs
}

func TestKeygenThresholdGrid(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for threshold := 1; threshold <= n; threshold++ {
			t.Run(fmt.Sprintf("%d-of-%d", threshold, n), func(t *testing.T) {
				fed := newFederation(t, threshold, n)
				require.Equal(t, threshold, fed.jointKey.Threshold)
				require.Equal(t, n, fed.jointKey.Participants())
				require.NoError(t, fed.jointKey.VerifyShares())

				for i, secret := range fed.secrets {
					require.True(t, ScalarBaseMult(secret).Equal(fed.jointKey.VerificationShares[i]))
				}

				// the last threshold verification shares recover the public key
				points := make(map[ParticipantIndex]*Point)
				for i := n - threshold; i < n; i++ {
					points[ParticipantIndex(i)] = fed.jointKey.VerificationShares[i]
				}
				key, err := InterpolatePoint(points)
				require.NoError(t, err)
				require.True(t, key.Equal(fed.jointKey.PublicKey))

				// every threshold-sized window of members recovers the same key
				for start := 0; start+threshold <= n; start++ {
					shares := make(map[ParticipantIndex]*Scalar)
					for i := start; i < start+threshold; i++ {
						shares[ParticipantIndex(i)] = fed.secrets[i]
					}
					secret, err := InterpolateSecret(shares)
					require.NoError(t, err)
					require.True(t, ScalarBaseMult(secret).Equal(fed.jointKey.PublicKey))
				}
			})
		}
	}
}

func TestKeygenSessionsAgree(t *testing.T) {
	run := newKeygenRun(t, 3, 5)
	run.exchangeCommitments(t)
	for _, err := range run.deliverShares() {
		require.NoError(t, err)
	}

	var jointKey *JointKey
	for _, session := range run.sessions {
		result, err := session.Finish()
		require.NoError(t, err)
		if jointKey == nil {
			jointKey = result.JointKey
		}
		require.True(t, jointKey.Equal(result.JointKey))
		require.True(t, ScalarBaseMult(result.SecretShare).Equal(jointKey.VerificationShares[result.ParticipantID]))
	}
}

func TestKeygenRejectsInvalidProofOfPossession(t *testing.T) {
	audit := &recordingAudit{}
	run := newKeygenRun(t, 2, 4, WithKeygenAudit(audit))
	run.exchangeCommitments(t)

	// party 1 sends everyone a proof made for party 3
	for i := range run.round2[1] {
		run.round2[1][i].Proof = run.round2[3][i].Proof
	}
	for _, err := range run.deliverShares() {
		require.NoError(t, err)
	}

	for i, session := range run.sessions {
		_, err := session.Finish()
		if i == 1 {
			// party 1 already holds its own honest share and proof
			require.NoError(t, err)
			continue
		}
		require.ErrorIs(t, err, ErrInvalidProofOfPossession)
		party, ok := PartyFromError(err)
		require.True(t, ok)
		require.Equal(t, ParticipantIndex(1), party)

		_, err = session.Finish()
		require.ErrorIs(t, err, ErrKeyGenAborted)
	}

	var aborted int
	for _, event := range audit.keygenEvents() {
		if event.EventType == AuditEventKeyGenAborted {
			aborted++
			require.Equal(t, []ParticipantIndex{1}, event.Blamed)
		}
	}
	require.Equal(t, 3, aborted)
}

func TestKeygenRejectsInvalidShare(t *testing.T) {
	run := newKeygenRun(t, 3, 4)
	run.exchangeCommitments(t)

	// party 2 sends party 0 a share that does not match its commitment
	tampered := run.round2[2][0].Share.Add(NewScalarFromUint32(1))
	run.round2[2][0].Share = tampered
	for _, err := range run.deliverShares() {
		require.NoError(t, err)
	}

	_, err := run.sessions[0].Finish()
	require.ErrorIs(t, err, ErrInvalidShare)
	party, ok := PartyFromError(err)
	require.True(t, ok)
	require.Equal(t, ParticipantIndex(2), party)

	for _, session := range run.sessions[1:] {
		_, err := session.Finish()
		require.NoError(t, err)
	}
}

func TestKeygenRejectsMisaddressedShare(t *testing.T) {
	run := newKeygenRun(t, 2, 3)
	run.exchangeCommitments(t)

	_, err := run.sessions[0].ProcessRound2(run.round2[1][2])
	require.ErrorIs(t, err, ErrInvalidParticipantID)

	_, err = run.sessions[0].ProcessRound2(run.round2[2][0])
	require.ErrorIs(t, err, ErrKeyGenAborted)
}

func TestKeygenRejectsMismatchedThreshold(t *testing.T) {
	run := newKeygenRun(t, 2, 3)
	other := newKeygenRun(t, 3, 3)

	_, err := run.sessions[0].ProcessRound1(other.round1[1])
	require.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestKeygenOutOfOrder(t *testing.T) {
	session, err := NewKeygenSession(0, 3, 2, WithKeygenRandomness(testrand.New(t.Name())), WithKeygenLogger(quietLogger()))
	require.NoError(t, err)

	_, err = session.Round2()
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = session.Finish()
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = session.ProcessRound2(&KeygenRound2{ParticipantID: 1, Recipient: 0})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = session.Round1()
	require.NoError(t, err)
	_, err = session.Round1()
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = session.Round2()
	require.ErrorIs(t, err, ErrInsufficientCommitments)
}

func TestKeygenSharesBeforeRound2(t *testing.T) {
	run := newKeygenRun(t, 2, 3)
	for i, session := range run.sessions {
		for j, msg := range run.round1 {
			if i != j {
				_, err := session.ProcessRound1(msg)
				require.NoError(t, err)
			}
		}
	}

	// parties 1 and 2 move on while party 0 is still busy
	for _, i := range []int{1, 2} {
		msgs, err := run.sessions[i].Round2()
		require.NoError(t, err)
		run.round2[i] = msgs
	}
	for _, i := range []int{1, 2} {
		ready, err := run.sessions[0].ProcessRound2(run.round2[i][0])
		require.NoError(t, err)
		require.False(t, ready)
	}
	_, err := run.sessions[0].Finish()
	require.ErrorIs(t, err, ErrInvalidState)

	msgs, err := run.sessions[0].Round2()
	require.NoError(t, err)
	run.round2[0] = msgs
	for _, i := range []int{1, 2} {
		_, err := run.sessions[i].ProcessRound2(run.round2[0][i])
		require.NoError(t, err)
		_, err = run.sessions[i].ProcessRound2(run.round2[3-i][i])
		require.NoError(t, err)
	}

	var jointKey *JointKey
	for _, session := range run.sessions {
		result, err := session.Finish()
		require.NoError(t, err)
		if jointKey == nil {
			jointKey = result.JointKey
		}
		require.True(t, jointKey.Equal(result.JointKey))
	}
}

func TestKeygenAbort(t *testing.T) {
	audit := &recordingAudit{}
	run := newKeygenRun(t, 2, 3, WithKeygenAudit(audit))
	run.exchangeCommitments(t)

	run.sessions[0].Abort(nil)
	require.Nil(t, run.sessions[0].polynomial)
	_, err := run.sessions[0].Finish()
	require.ErrorIs(t, err, ErrKeyGenAborted)
	_, err = run.sessions[0].ProcessRound2(run.round2[1][0])
	require.ErrorIs(t, err, ErrKeyGenAborted)

	events := audit.keygenEvents()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, AuditEventKeyGenAborted, last.EventType)
	require.False(t, last.Success)
}

func TestNewKeygenSessionValidation(t *testing.T) {
	_, err := NewKeygenSession(0, 3, 0)
	require.ErrorIs(t, err, ErrInvalidThreshold)
	_, err = NewKeygenSession(0, 3, 4)
	require.ErrorIs(t, err, ErrThresholdTooHigh)
	_, err = NewKeygenSession(3, 3, 2)
	require.ErrorIs(t, err, ErrInvalidParticipantID)
}

func TestKeyGenIDBindsCommitments(t *testing.T) {
	rng := testrand.New(t.Name())
	commitments := make([]PublicCommitment, 3)
	for i := range commitments {
		poly, err := NewSecretPolynomial(rng, 2)
		require.NoError(t, err)
		commitments[i] = poly.Commitment()
	}
	kg1, err := NewKeyGen(commitments)
	require.NoError(t, err)

	swapped := []PublicCommitment{commitments[1], commitments[0], commitments[2]}
	kg2, err := NewKeyGen(swapped)
	require.NoError(t, err)
	require.NotEqual(t, kg1.ID(), kg2.ID())
	require.True(t, kg1.JointKey().PublicKey.Equal(kg2.JointKey().PublicKey))
}

func TestJointKeyVerifyShares(t *testing.T) {
	fed := newFederation(t, 2, 4)
	require.NoError(t, fed.jointKey.VerifyShares())

	tampered := &JointKey{
		Threshold:          fed.jointKey.Threshold,
		PublicKey:          fed.jointKey.PublicKey,
		VerificationShares: slices.Clone(fed.jointKey.VerificationShares),
	}
	tampered.VerificationShares[0], tampered.VerificationShares[3] = tampered.VerificationShares[3], tampered.VerificationShares[0]
	require.NoError(t, tampered.Validate())

	err := tampered.VerifyShares()
	require.ErrorIs(t, err, ErrInvalidShare)
	party, ok := PartyFromError(err)
	require.True(t, ok)
	require.Equal(t, ParticipantIndex(0), party)
}
