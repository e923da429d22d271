package frost

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuditEventType represents the type of audit event
type AuditEventType string

const (
	// Key generation events
	AuditEventKeyGenStarted   AuditEventType = "keygen_started"
	AuditEventKeyGenCompleted AuditEventType = "keygen_completed"
	AuditEventKeyGenAborted   AuditEventType = "keygen_aborted"

	// Signing events
	AuditEventSessionOpened          AuditEventType = "signing_session_opened"
	AuditEventSignatureShareRejected AuditEventType = "signature_share_rejected"
	AuditEventSignatureCombined      AuditEventType = "signature_combined"
	AuditEventNonceReuseRejected     AuditEventType = "nonce_reuse_rejected"
	AuditEventSessionFailed          AuditEventType = "signing_session_failed"
)

// AuditEventReason represents why an event occurred
type AuditEventReason string

const (
	ReasonGenesis           AuditEventReason = "genesis"
	ReasonSigningRequest    AuditEventReason = "signing_request"
	ReasonProtocolViolation AuditEventReason = "protocol_violation"
	ReasonTimeout           AuditEventReason = "timeout"
	ReasonManualAbort       AuditEventReason = "manual_abort"
)

// AuditEvent represents a single audit event in the FROST library
type AuditEvent struct {
	// Event metadata
	EventID   string           `json:"event_id"`
	Timestamp time.Time        `json:"timestamp"`
	EventType AuditEventType   `json:"event_type"`
	Reason    AuditEventReason `json:"reason"`

	// Context information
	SessionID        string             `json:"session_id,omitempty"`
	Participant      *ParticipantIndex  `json:"participant,omitempty"`
	Blamed           []ParticipantIndex `json:"blamed,omitempty"`
	Threshold        int                `json:"threshold,omitempty"`
	ParticipantCount int                `json:"participant_count,omitempty"`

	// Success/failure information
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Additional context
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AuditEventHandler defines the interface for handling audit events.
// Applications implement this interface to record events according to their needs.
type AuditEventHandler interface {
	// OnKeyGen is called on key generation progress and failures
	OnKeyGen(event *AuditEvent)

	// OnSigning is called on signing session progress
	OnSigning(event *AuditEvent)

	// OnError is called for protocol violations by other parties
	OnError(event *AuditEvent)
}

// NullAuditHandler is a no-op implementation of AuditEventHandler
type NullAuditHandler struct{}

func (n *NullAuditHandler) OnKeyGen(event *AuditEvent)  {}
func (n *NullAuditHandler) OnSigning(event *AuditEvent) {}
func (n *NullAuditHandler) OnError(event *AuditEvent)   {}

// LogAuditHandler writes audit events to a logrus logger.
type LogAuditHandler struct {
	logger logrus.FieldLogger
}

// NewLogAuditHandler returns a handler logging to logger, or to the standard
// logrus logger when logger is nil.
func NewLogAuditHandler(logger logrus.FieldLogger) *LogAuditHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogAuditHandler{logger: logger}
}

func (h *LogAuditHandler) fields(event *AuditEvent) *logrus.Entry {
	entry := h.logger.WithFields(logrus.Fields{
		"event_id":   event.EventID,
		"event_type": event.EventType,
		"reason":     event.Reason,
	})
	if event.SessionID != "" {
		entry = entry.WithField("session", event.SessionID)
	}
	if event.Participant != nil {
		entry = entry.WithField("party", *event.Participant)
	}
	if len(event.Blamed) > 0 {
		entry = entry.WithField("blamed", event.Blamed)
	}
	if event.Threshold > 0 {
		entry = entry.WithField("threshold", event.Threshold)
	}
	if event.ParticipantCount > 0 {
		entry = entry.WithField("participants", event.ParticipantCount)
	}
	if event.Error != "" {
		entry = entry.WithField("error", event.Error)
	}
	for k, v := range event.Metadata {
		entry = entry.WithField(k, v)
	}
	return entry
}

func (h *LogAuditHandler) OnKeyGen(event *AuditEvent) {
	entry := h.fields(event)
	if event.Success {
		entry.Info("key generation")
		return
	}
	entry.Error("key generation failed")
}

func (h *LogAuditHandler) OnSigning(event *AuditEvent) {
	entry := h.fields(event)
	if event.Success {
		entry.Debug("signing")
		return
	}
	entry.Warn("signing failed")
}

func (h *LogAuditHandler) OnError(event *AuditEvent) {
	h.fields(event).Warn("protocol violation")
}

// AuditEventBuilder helps construct audit events with proper defaults
type AuditEventBuilder struct {
	event *AuditEvent
}

// NewAuditEventBuilder creates a new audit event builder
func NewAuditEventBuilder(eventType AuditEventType, reason AuditEventReason) *AuditEventBuilder {
	return &AuditEventBuilder{
		event: &AuditEvent{
			EventID:   uuid.NewString(),
			Timestamp: time.Now(),
			EventType: eventType,
			Reason:    reason,
			Success:   true, // Default to success, can be overridden
			Metadata:  make(map[string]interface{}),
		},
	}
}

// WithSession sets the session id for the event
func (b *AuditEventBuilder) WithSession(sessionID string) *AuditEventBuilder {
	b.event.SessionID = sessionID
	return b
}

// WithParticipant sets the participant reporting the event
func (b *AuditEventBuilder) WithParticipant(participant ParticipantIndex) *AuditEventBuilder {
	b.event.Participant = &participant
	return b
}

// WithThreshold sets the threshold parameters
func (b *AuditEventBuilder) WithThreshold(threshold, participants int) *AuditEventBuilder {
	b.event.Threshold = threshold
	b.event.ParticipantCount = participants
	return b
}

// WithBlame records participants responsible for a failure
func (b *AuditEventBuilder) WithBlame(participants ...ParticipantIndex) *AuditEventBuilder {
	b.event.Blamed = append(b.event.Blamed, participants...)
	return b
}

// WithError marks the event as failed and sets error information. When err
// names a participant it is added to the blame list.
func (b *AuditEventBuilder) WithError(err error) *AuditEventBuilder {
	b.event.Success = false
	if err != nil {
		b.event.Error = err.Error()
		if party, ok := PartyFromError(err); ok {
			b.event.Blamed = append(b.event.Blamed, party)
		}
	}
	return b
}

// WithMetadata adds metadata to the event
func (b *AuditEventBuilder) WithMetadata(key string, value interface{}) *AuditEventBuilder {
	b.event.Metadata[key] = value
	return b
}

// Build returns the constructed audit event
func (b *AuditEventBuilder) Build() *AuditEvent {
	return b.event
}
