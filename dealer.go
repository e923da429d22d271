package frost

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// SimulateKeyGen runs the key generation of all n parties inside one
// process and returns every party's secret share together with the joint
// key. It is meant for genesis of test federations and for simulations; in
// a real federation each party runs its own KeygenSession.
func SimulateKeyGen(rng io.Reader, threshold, participants int, logger logrus.FieldLogger) ([]*Scalar, *JointKey, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	sessions := make([]*KeygenSession, participants)
	for i := range sessions {
		session, err := NewKeygenSession(ParticipantIndex(i), participants, threshold,
			WithKeygenRandomness(rng),
			WithKeygenLogger(logger),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create keygen session for participant %d: %w", i, err)
		}
		sessions[i] = session
	}

	round1 := make([]*KeygenRound1, participants)
	for i, session := range sessions {
		msg, err := session.Round1()
		if err != nil {
			return nil, nil, fmt.Errorf("round 1 failed for participant %d: %w", i, err)
		}
		round1[i] = msg
	}
	for i, session := range sessions {
		for j, msg := range round1 {
			if i == j {
				continue
			}
			if _, err := session.ProcessRound1(msg); err != nil {
				return nil, nil, fmt.Errorf("participant %d rejected commitment of %d: %w", i, j, err)
			}
		}
	}

	round2 := make([][]*KeygenRound2, participants)
	for i, session := range sessions {
		msgs, err := session.Round2()
		if err != nil {
			return nil, nil, fmt.Errorf("round 2 failed for participant %d: %w", i, err)
		}
		round2[i] = msgs
	}
	for i, session := range sessions {
		for j := range sessions {
			if i == j {
				continue
			}
			if _, err := session.ProcessRound2(round2[j][i]); err != nil {
				return nil, nil, fmt.Errorf("participant %d rejected share of %d: %w", i, j, err)
			}
		}
	}

	secrets := make([]*Scalar, participants)
	var jointKey *JointKey
	for i, session := range sessions {
		result, err := session.Finish()
		if err != nil {
			ZeroizeScalarSlice(secrets)
			return nil, nil, fmt.Errorf("key generation failed for participant %d: %w", i, err)
		}
		if jointKey != nil && !jointKey.Equal(result.JointKey) {
			ZeroizeScalarSlice(secrets)
			return nil, nil, ErrConfigurationMismatch.WithContext(ContextParty, ParticipantIndex(i)).
				WithDetails("participants derived different joint keys")
		}
		jointKey = result.JointKey
		secrets[i] = result.SecretShare
	}
	return secrets, jointKey, nil
}
