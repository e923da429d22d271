package frost

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThresholdFromMaxEvil(t *testing.T) {
	for _, tc := range []struct {
		n, maxEvil, threshold int
	}{
		{1, 0, 1},
		{4, 1, 3},
		{7, 2, 5},
		{15, 10, 5},
	} {
		t.Run(fmt.Sprintf("n=%d,f=%d", tc.n, tc.maxEvil), func(t *testing.T) {
			threshold, err := ThresholdFromMaxEvil(tc.n, tc.maxEvil)
			require.NoError(t, err)
			require.Equal(t, tc.threshold, threshold)
		})
	}

	_, err := ThresholdFromMaxEvil(4, 4)
	require.ErrorIs(t, err, ErrInvalidThreshold)
	_, err = ThresholdFromMaxEvil(4, -1)
	require.ErrorIs(t, err, ErrInvalidThreshold)

	require.Equal(t, 1, MaxEvilForParticipants(4))
	require.Equal(t, 0, MaxEvilForParticipants(3))
	require.Equal(t, 3, MaxEvilForParticipants(10))
}

func TestValidateThresholdParameters(t *testing.T) {
	tv := NewDefaultThresholdValidator()

	result := tv.ValidateThresholdParameters(4, 3)
	require.True(t, result.Valid)
	require.NoError(t, result.Err())
	require.True(t, result.ByzantineFaultTolerance)

	result = tv.ValidateThresholdParameters(5, 1)
	require.True(t, result.Valid)
	require.Equal(t, SecurityLevelLow, result.SecurityLevel)
	require.NotEmpty(t, result.Warnings)

	for _, bad := range [][2]int{{3, 0}, {3, 4}, {0, 1}, {MaxParticipants + 1, 2}} {
		result := tv.ValidateThresholdParameters(bad[0], bad[1])
		require.False(t, result.Valid, "n=%d t=%d", bad[0], bad[1])
		require.ErrorIs(t, result.Err(), ErrInvalidThreshold)
	}
}

func TestValidateParticipants(t *testing.T) {
	require.NoError(t, ValidateParticipants(participants(0, 2, 4), 5))
	require.ErrorIs(t, ValidateParticipants(nil, 5), ErrInsufficientParticipants)
	require.ErrorIs(t, ValidateParticipants(participants(0, 5), 5), ErrInvalidParticipantID)

	err := ValidateParticipants(participants(1, 3, 1), 5)
	require.ErrorIs(t, err, ErrDuplicateParticipants)
	party, ok := PartyFromError(err)
	require.True(t, ok)
	require.Equal(t, ParticipantIndex(1), party)
}

func TestAssessSecurity(t *testing.T) {
	a := AssessSecurity(4, 3)
	require.Equal(t, 1, a.FaultTolerance)
	require.True(t, a.ByzantineFaultTolerance)
	require.Equal(t, SecurityLevelHigh, a.OverallRating)

	a = AssessSecurity(15, 5)
	require.Equal(t, 10, a.FaultTolerance)
	require.False(t, a.ByzantineFaultTolerance)
	require.Equal(t, SecurityLevelLow, a.OverallRating)

	require.Equal(t, SecurityLevelLow, AssessSecurity(3, 4).OverallRating)
}
