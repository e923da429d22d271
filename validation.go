package frost

import (
	"fmt"
	"math"
)

// MaxParticipants bounds the federation size accepted by decoders and
// validators.
const MaxParticipants = 1024

// SecurityLevel represents the security level of threshold parameters
type SecurityLevel string

const (
	SecurityLevelLow    SecurityLevel = "low"
	SecurityLevelMedium SecurityLevel = "medium"
	SecurityLevelHigh   SecurityLevel = "high"
)

// Byzantine fault tolerance constants
const (
	DefaultByzantineRatio = 2.0 / 3.0 // 2/3 for Byzantine fault tolerance
)

// ValidationResult contains the result of parameter validation
type ValidationResult struct {
	Valid                   bool          `json:"valid"`
	SecurityLevel           SecurityLevel `json:"security_level"`
	ByzantineFaultTolerance bool          `json:"byzantine_fault_tolerance"`
	Warnings                []string      `json:"warnings,omitempty"`
	Errors                  []string      `json:"errors,omitempty"`
	Recommendations         []string      `json:"recommendations,omitempty"`
}

// Err folds the errors of an invalid result into one FROST error.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return ErrInvalidThreshold.WithDetails("%v", r.Errors)
}

// ThresholdValidator provides validation for threshold parameters
type ThresholdValidator struct {
	MinParticipants     int     `json:"min_participants"`
	MinThreshold        int     `json:"min_threshold"`
	MaxParticipants     int     `json:"max_participants"`
	ByzantineRatio      float64 `json:"byzantine_ratio"`       // For Byzantine fault tolerance (typically 2/3)
	RecommendedMinRatio float64 `json:"recommended_min_ratio"` // Minimum recommended threshold ratio
	RecommendedMaxRatio float64 `json:"recommended_max_ratio"` // Maximum recommended threshold ratio
}

// NewDefaultThresholdValidator creates a validator accepting every 1 ≤ t ≤ n
// and warning about weak federations.
func NewDefaultThresholdValidator() *ThresholdValidator {
	return &ThresholdValidator{
		MinParticipants:     1,
		MinThreshold:        1,
		MaxParticipants:     MaxParticipants,
		ByzantineRatio:      DefaultByzantineRatio,
		RecommendedMinRatio: 0.51,
		RecommendedMaxRatio: 0.80,
	}
}

// ValidateThresholdParameters validates threshold and participant parameters
func (tv *ThresholdValidator) ValidateThresholdParameters(participantCount, threshold int) *ValidationResult {
	result := &ValidationResult{
		Valid:           true,
		SecurityLevel:   SecurityLevelMedium,
		Warnings:        []string{},
		Errors:          []string{},
		Recommendations: []string{},
	}

	if threshold <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "threshold must be positive")
	}
	if participantCount <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "participant count must be positive")
	}
	if threshold > participantCount {
		result.Valid = false
		result.Errors = append(result.Errors, "threshold cannot exceed participant count")
	}
	if !result.Valid {
		result.SecurityLevel = SecurityLevelLow
		return result
	}

	if participantCount < tv.MinParticipants {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("minimum %d participants required", tv.MinParticipants))
	}
	if participantCount > tv.MaxParticipants {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("at most %d participants supported", tv.MaxParticipants))
	}
	if threshold < tv.MinThreshold {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("minimum threshold of %d required", tv.MinThreshold))
	}
	if !result.Valid {
		result.SecurityLevel = SecurityLevelLow
		return result
	}

	thresholdRatio := float64(threshold) / float64(participantCount)

	byzantineThreshold := int(math.Ceil(float64(participantCount) * tv.ByzantineRatio))
	if threshold >= byzantineThreshold && participantCount >= 4 {
		result.ByzantineFaultTolerance = true
		result.SecurityLevel = SecurityLevelHigh
	}

	if thresholdRatio < tv.RecommendedMinRatio {
		result.SecurityLevel = SecurityLevelLow
		result.Warnings = append(result.Warnings, "threshold ratio is below recommended minimum for security")
		result.Recommendations = append(result.Recommendations, fmt.Sprintf("consider increasing threshold to at least %d", int(math.Ceil(float64(participantCount)*tv.RecommendedMinRatio))))
	} else if thresholdRatio > tv.RecommendedMaxRatio {
		result.Warnings = append(result.Warnings, "threshold ratio is high, may affect availability")
	}

	if threshold == 1 {
		result.SecurityLevel = SecurityLevelLow
		result.Warnings = append(result.Warnings, "threshold of 1 lets any single member sign")
	}
	if threshold == participantCount {
		result.Warnings = append(result.Warnings, "threshold equals participant count - no fault tolerance")
	}

	return result
}

// ThresholdFromMaxEvil returns the signing threshold n - f of a federation
// of n members tolerating f malicious or offline members.
func ThresholdFromMaxEvil(participantCount, maxEvil int) (int, error) {
	if maxEvil < 0 || maxEvil >= participantCount {
		return 0, ErrInvalidThreshold.WithDetails("max evil %d with %d participants", maxEvil, participantCount)
	}
	return participantCount - maxEvil, nil
}

// MaxEvilForParticipants returns the largest f with n ≥ 3f + 1.
func MaxEvilForParticipants(participantCount int) int {
	if participantCount < 1 {
		return 0
	}
	return (participantCount - 1) / 3
}

// ValidateParticipants checks a signer list for duplicates and out-of-range
// indices.
func ValidateParticipants(participants []ParticipantIndex, participantCount int) error {
	if len(participants) == 0 {
		return ErrInsufficientParticipants.WithDetails("participant list cannot be empty")
	}
	seen := make(map[ParticipantIndex]bool, len(participants))
	for _, p := range participants {
		if int(p) >= participantCount {
			return ErrInvalidParticipantID.WithContext(ContextParty, p)
		}
		if seen[p] {
			return ErrDuplicateParticipants.WithContext(ContextParty, p)
		}
		seen[p] = true
	}
	return nil
}

// SecurityAssessment provides a detailed security assessment
type SecurityAssessment struct {
	OverallRating           SecurityLevel `json:"overall_rating"`
	ByzantineFaultTolerance bool          `json:"byzantine_fault_tolerance"`
	FaultTolerance          int           `json:"fault_tolerance"`   // Members that may be offline
	AttackResistance        int           `json:"attack_resistance"` // Members needed to forge
	AvailabilityRisk        string        `json:"availability_risk"`
}

// AssessSecurity summarizes what a t-of-n federation tolerates.
func AssessSecurity(participantCount, threshold int) *SecurityAssessment {
	if participantCount <= 0 || threshold <= 0 || threshold > participantCount {
		return &SecurityAssessment{
			OverallRating:    SecurityLevelLow,
			AvailabilityRisk: "critical - invalid parameters",
		}
	}

	faultTolerance := participantCount - threshold
	assessment := &SecurityAssessment{
		FaultTolerance:   faultTolerance,
		AttackResistance: threshold,
	}
	assessment.ByzantineFaultTolerance = faultTolerance <= MaxEvilForParticipants(participantCount) &&
		threshold > 2*faultTolerance

	thresholdRatio := float64(threshold) / float64(participantCount)
	switch {
	case thresholdRatio < 0.5:
		assessment.OverallRating = SecurityLevelLow
	case thresholdRatio >= 0.67:
		assessment.OverallRating = SecurityLevelHigh
	default:
		assessment.OverallRating = SecurityLevelMedium
	}

	switch {
	case faultTolerance == 0:
		assessment.AvailabilityRisk = "critical - no fault tolerance"
	case faultTolerance == 1:
		assessment.AvailabilityRisk = "high - single point of failure"
	case faultTolerance <= 3:
		assessment.AvailabilityRisk = "medium - limited fault tolerance"
	default:
		assessment.AvailabilityRisk = "low - good fault tolerance"
	}
	return assessment
}
