package frost

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestAuditEventBuilder(t *testing.T) {
	event := NewAuditEventBuilder(AuditEventSessionFailed, ReasonProtocolViolation).
		WithSession("s1").
		WithParticipant(0).
		WithThreshold(3, 5).
		WithBlame(4).
		WithError(ErrInvalidSignatureShare.WithContext(ContextSigner, ParticipantIndex(2))).
		WithMetadata("blinded", true).
		Build()

	require.NotEmpty(t, event.EventID)
	require.False(t, event.Success)
	require.Equal(t, "s1", event.SessionID)
	require.Equal(t, ParticipantIndex(0), *event.Participant)
	require.Equal(t, []ParticipantIndex{4, 2}, event.Blamed)
	require.Equal(t, 5, event.ParticipantCount)
	require.Contains(t, event.Error, "signer 2")
	require.Equal(t, true, event.Metadata["blinded"])

	ok := NewAuditEventBuilder(AuditEventSignatureCombined, ReasonSigningRequest).Build()
	require.True(t, ok.Success)
	require.NotEqual(t, event.EventID, ok.EventID)
}

func TestLogAuditHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	handler := NewLogAuditHandler(logger)

	handler.OnKeyGen(NewAuditEventBuilder(AuditEventKeyGenCompleted, ReasonGenesis).WithThreshold(2, 3).Build())
	entry := hook.LastEntry()
	require.Equal(t, logrus.InfoLevel, entry.Level)
	require.Equal(t, 2, entry.Data["threshold"])

	handler.OnKeyGen(NewAuditEventBuilder(AuditEventKeyGenAborted, ReasonProtocolViolation).
		WithError(ErrInvalidProofOfPossession.WithContext(ContextParty, ParticipantIndex(1))).
		Build())
	entry = hook.LastEntry()
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Equal(t, []ParticipantIndex{1}, entry.Data["blamed"])

	handler.OnSigning(NewAuditEventBuilder(AuditEventSessionFailed, ReasonTimeout).WithSession("s").WithBlame(3).WithError(ErrSessionTimeout).Build())
	entry = hook.LastEntry()
	require.Equal(t, logrus.WarnLevel, entry.Level)
	require.Equal(t, "s", entry.Data["session"])

	handler.OnError(NewAuditEventBuilder(AuditEventSignatureShareRejected, ReasonProtocolViolation).Build())
	require.Equal(t, "protocol violation", hook.LastEntry().Message)
	require.Len(t, hook.AllEntries(), 4)
}
