package frost

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/minimint/frost/internal/testrand"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// federation is a simulated set of members sharing one joint key.
type federation struct {
	rng      io.Reader
	secrets  []*Scalar
	jointKey *JointKey
	counter  uint64
}

func newFederation(t testing.TB, threshold, participants int) *federation {
	t.Helper()
	rng := testrand.New(t.Name(), threshold, participants)
	secrets, jointKey, err := SimulateKeyGen(rng, threshold, participants, quietLogger())
	require.NoError(t, err)
	return &federation{rng: rng, secrets: secrets, jointKey: jointKey}
}

// nonces issues a fresh binonce to every signer.
func (f *federation) nonces(t testing.TB, signers ...ParticipantIndex) (map[ParticipantIndex]*PublicNonce, map[ParticipantIndex]*SecretNonce) {
	t.Helper()
	f.counter++
	sessionID := SessionID(f.jointKey, "test", f.counter)
	public := make(map[ParticipantIndex]*PublicNonce, len(signers))
	secret := make(map[ParticipantIndex]*SecretNonce, len(signers))
	for _, idx := range signers {
		nonce, err := GenerateNonce(f.rng, f.secrets[idx], sessionID)
		require.NoError(t, err)
		public[idx] = nonce.Public()
		secret[idx] = nonce
	}
	return public, secret
}

// sign has every session signer produce its share.
func (f *federation) sign(t testing.TB, session *SignSession, secret map[ParticipantIndex]*SecretNonce) []*SignatureShare {
	t.Helper()
	shares := make([]*SignatureShare, 0, len(secret))
	for _, idx := range session.Signers() {
		share, err := session.Sign(idx, f.secrets[idx], secret[idx])
		require.NoError(t, err)
		require.NoError(t, session.VerifyShare(share))
		shares = append(shares, share)
	}
	return shares
}

// signPlain runs a full plain signing session over message.
func (f *federation) signPlain(t testing.TB, message []byte, signers ...ParticipantIndex) *Signature {
	t.Helper()
	public, secret := f.nonces(t, signers...)
	session, err := StartSignSession(f.jointKey, public, message)
	require.NoError(t, err)
	sig, err := CombineSignature(session, f.sign(t, session, secret))
	require.NoError(t, err)
	return sig
}

// signBlind runs a full blind signing session over message.
func (f *federation) signBlind(t testing.TB, message []byte, signers ...ParticipantIndex) *Signature {
	t.Helper()
	public, secret := f.nonces(t, signers...)
	nonce, err := SessionNonce(f.jointKey, public)
	require.NoError(t, err)
	key, blinded, err := Blind(f.rng, f.jointKey, nonce, message)
	require.NoError(t, err)

	session, err := StartBlindSignSession(f.jointKey, public, blinded)
	require.NoError(t, err)
	blindSig, err := CombineBlindedSignature(session, f.sign(t, session, secret))
	require.NoError(t, err)

	sig, err := Unblind(key, blindSig)
	require.NoError(t, err)
	return sig
}

func participants(indices ...int) []ParticipantIndex {
	out := make([]ParticipantIndex, len(indices))
	for i, idx := range indices {
		out[i] = ParticipantIndex(idx)
	}
	return out
}

func firstN(n int) []ParticipantIndex {
	out := make([]ParticipantIndex, n)
	for i := range out {
		out[i] = ParticipantIndex(i)
	}
	return out
}

func testScalar(t testing.TB, seed ...any) *Scalar {
	t.Helper()
	s, err := RandomScalar(testrand.New(append([]any{t.Name()}, seed...)...))
	require.NoError(t, err)
	return s
}
