package frost

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of FROST error
type ErrorCategory string

const (
	ErrorCategoryDecode        ErrorCategory = "decode"
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryParticipant   ErrorCategory = "participant"
	ErrorCategoryCryptographic ErrorCategory = "cryptographic"
	ErrorCategoryKeyGeneration ErrorCategory = "key_generation"
	ErrorCategorySigning       ErrorCategory = "signing"
	ErrorCategoryDegenerate    ErrorCategory = "degenerate"
	ErrorCategoryInternal      ErrorCategory = "internal"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"      // Non-critical, operation can continue
	ErrorSeverityMedium   ErrorSeverity = "medium"   // Important, may affect functionality
	ErrorSeverityHigh     ErrorSeverity = "high"     // Critical, operation should stop
	ErrorSeverityCritical ErrorSeverity = "critical" // System-level failure
)

// Context keys used by parameterized errors.
const (
	ContextParty  = "party"
	ContextSigner = "signer"
)

// FROSTError represents a structured error in the FROST library
type FROSTError struct {
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Cause       error                  `json:"-"` // Original error, not serialized
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// Error implements the error interface
func (e *FROSTError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if party, ok := e.Context[ContextParty]; ok {
		msg += fmt.Sprintf(" (party %v)", party)
	}
	if signer, ok := e.Context[ContextSigner]; ok {
		msg += fmt.Sprintf(" (signer %v)", signer)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *FROSTError) Unwrap() error {
	return e.Cause
}

// Is matches FROST errors by code so that errors.Is works on copies made by
// WithContext and WithCause.
func (e *FROSTError) Is(target error) bool {
	other, ok := target.(*FROSTError)
	if !ok {
		return false
	}
	return e.Category == other.Category && e.Code == other.Code
}

func (e *FROSTError) clone() *FROSTError {
	newError := &FROSTError{
		Category:    e.Category,
		Severity:    e.Severity,
		Code:        e.Code,
		Message:     e.Message,
		Details:     e.Details,
		Recoverable: e.Recoverable,
		Cause:       e.Cause,
		Context:     make(map[string]interface{}, len(e.Context)+1),
	}
	for k, v := range e.Context {
		newError.Context[k] = v
	}
	return newError
}

// WithContext adds context information to the error. The receiver is left
// untouched so that the package sentinels can be shared.
func (e *FROSTError) WithContext(key string, value interface{}) *FROSTError {
	newError := e.clone()
	newError.Context[key] = value
	return newError
}

// WithCause sets the underlying cause of the error
func (e *FROSTError) WithCause(cause error) *FROSTError {
	newError := e.clone()
	newError.Cause = cause
	return newError
}

// WithDetails attaches a human readable detail string.
func (e *FROSTError) WithDetails(format string, args ...interface{}) *FROSTError {
	newError := e.clone()
	newError.Details = fmt.Sprintf(format, args...)
	return newError
}

// NewFROSTError creates a new FROST error
func NewFROSTError(category ErrorCategory, severity ErrorSeverity, code, message string) *FROSTError {
	return &FROSTError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		Context:     make(map[string]interface{}),
		Recoverable: severity != ErrorSeverityCritical,
	}
}

// Decode Errors
var (
	ErrTruncatedInput = NewFROSTError(
		ErrorCategoryDecode, ErrorSeverityMedium, "TRUNCATED_INPUT",
		"input length does not match the canonical width")

	ErrInvalidEncoding = NewFROSTError(
		ErrorCategoryDecode, ErrorSeverityMedium, "INVALID_ENCODING",
		"bytes do not encode a valid field or group element")

	ErrUnexpectedZero = NewFROSTError(
		ErrorCategoryDecode, ErrorSeverityMedium, "UNEXPECTED_ZERO",
		"value must be non-zero")
)

// Validation Errors
var (
	ErrInvalidThreshold = NewFROSTError(
		ErrorCategoryValidation, ErrorSeverityHigh, "INVALID_THRESHOLD",
		"threshold value is invalid")

	ErrThresholdTooHigh = NewFROSTError(
		ErrorCategoryValidation, ErrorSeverityHigh, "THRESHOLD_TOO_HIGH",
		"threshold exceeds participant count")

	ErrInsufficientParticipants = NewFROSTError(
		ErrorCategoryParticipant, ErrorSeverityHigh, "INSUFFICIENT_PARTICIPANTS",
		"insufficient participants for threshold signature")

	ErrDuplicateParticipants = NewFROSTError(
		ErrorCategoryParticipant, ErrorSeverityMedium, "DUPLICATE_PARTICIPANTS",
		"duplicate participants detected")

	ErrInvalidParticipantID = NewFROSTError(
		ErrorCategoryParticipant, ErrorSeverityMedium, "INVALID_PARTICIPANT_ID",
		"participant ID is invalid")
)

// Configuration Errors
var (
	ErrConfigurationMismatch = NewFROSTError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "CONFIGURATION_MISMATCH",
		"configuration parameters are inconsistent")
)

// Key Generation Errors. All of them abort the key generation run for the
// whole federation; none is retried automatically.
var (
	ErrInvalidProofOfPossession = NewFROSTError(
		ErrorCategoryKeyGeneration, ErrorSeverityCritical, "INVALID_PROOF_OF_POSSESSION",
		"proof of possession does not verify against the party's commitment")

	ErrInvalidShare = NewFROSTError(
		ErrorCategoryKeyGeneration, ErrorSeverityCritical, "INVALID_SHARE",
		"key share does not match the sender's commitment")

	ErrInsufficientShares = NewFROSTError(
		ErrorCategoryKeyGeneration, ErrorSeverityCritical, "INSUFFICIENT_SHARES",
		"key generation requires one share and one proof from every party")

	ErrInsufficientCommitments = NewFROSTError(
		ErrorCategoryKeyGeneration, ErrorSeverityCritical, "INSUFFICIENT_COMMITMENTS",
		"key generation requires a commitment from every party")

	ErrKeyGenAborted = NewFROSTError(
		ErrorCategoryKeyGeneration, ErrorSeverityCritical, "KEYGEN_ABORTED",
		"key generation session was aborted")
)

// Signing Errors. They reject a single share or request; the federation
// keeps operating.
var (
	ErrInvalidSignatureShare = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityMedium, "INVALID_SIGNATURE_SHARE",
		"signature share does not verify against the signer's verification share")

	ErrDuplicateShare = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityMedium, "DUPLICATE_SHARE",
		"more than one signature share from the same signer")

	ErrUnknownSigner = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityMedium, "UNKNOWN_SIGNER",
		"signer did not contribute a nonce to this session")

	ErrMissingShares = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityMedium, "MISSING_SHARES",
		"a session signer has not delivered its signature share")

	ErrInsufficientSignatureShares = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityMedium, "INSUFFICIENT_SIGNATURE_SHARES",
		"fewer signature shares than the threshold")

	ErrInsufficientSigners = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityMedium, "INSUFFICIENT_SIGNERS",
		"insufficient signers for threshold signature")

	ErrNonceReuse = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityHigh, "NONCE_REUSE",
		"nonce for this session was already issued or consumed")

	ErrNonceMismatch = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityHigh, "NONCE_MISMATCH",
		"secret nonce does not match the commitment in the session")

	ErrSessionMode = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityMedium, "SESSION_MODE",
		"operation does not match the session's blinded or plain mode")

	ErrSignatureVerificationFailed = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityHigh, "SIGNATURE_VERIFICATION_FAILED",
		"signature verification failed")

	ErrSessionTimeout = NewFROSTError(
		ErrorCategorySigning, ErrorSeverityMedium, "SESSION_TIMEOUT",
		"signing request expired before enough valid shares arrived")
)

// Degenerate Errors. A zero value appeared where the algebra needs a non-zero
// one; the step is redone with fresh randomness.
var (
	ErrDegenerateValue = NewFROSTError(
		ErrorCategoryDegenerate, ErrorSeverityLow, "DEGENERATE_VALUE",
		"computation produced a zero value")
)

// Cryptographic Errors
var (
	ErrRandomnessGeneration = NewFROSTError(
		ErrorCategoryCryptographic, ErrorSeverityCritical, "RANDOMNESS_GENERATION_FAILED",
		"failed to generate secure randomness")
)

// Internal Errors
var (
	ErrInvalidState = NewFROSTError(
		ErrorCategoryInternal, ErrorSeverityHigh, "INVALID_STATE",
		"component is in invalid state")
)

// Error helper functions

// IsErrorCategory checks if an error belongs to a specific category
func IsErrorCategory(err error, category ErrorCategory) bool {
	var frostErr *FROSTError
	if errors.As(err, &frostErr) {
		return frostErr.Category == category
	}
	return false
}

// IsDegenerate reports whether err signals a zero value that warrants a
// retry with fresh randomness.
func IsDegenerate(err error) bool {
	return IsErrorCategory(err, ErrorCategoryDegenerate)
}

// GetErrorContext extracts context from a FROST error
func GetErrorContext(err error) map[string]interface{} {
	var frostErr *FROSTError
	if errors.As(err, &frostErr) {
		return frostErr.Context
	}
	return nil
}

// PartyFromError returns the participant blamed by err, if any.
func PartyFromError(err error) (ParticipantIndex, bool) {
	ctx := GetErrorContext(err)
	for _, key := range []string{ContextParty, ContextSigner} {
		if v, ok := ctx[key]; ok {
			if idx, ok := v.(ParticipantIndex); ok {
				return idx, true
			}
		}
	}
	return 0, false
}
