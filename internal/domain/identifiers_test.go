package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierPatterns(t *testing.T) {
	assert.True(t, IsExperimentID("ABC123"))
	assert.False(t, IsExperimentID("AB1234"))
	assert.False(t, IsExperimentID("abc123"))

	assert.True(t, IsFlowID("ABC123XY"))
	assert.False(t, IsFlowID("ABC123X"))
	assert.False(t, IsFlowID("ABC123XY-"))

	assert.True(t, IsStepID("ABC123XY-ML00"))
	assert.False(t, IsStepID("ABC123XY-ML0"))
	assert.False(t, IsStepID("ABC123XYML00"))
	assert.False(t, IsStepID("ABC123XY-ml00"))

	assert.True(t, IsStepTypeCode("ML"))
	assert.False(t, IsStepTypeCode("M"))
	assert.False(t, IsStepTypeCode("Ml"))
}

func TestFormatAndParseStepID_RoundTrip(t *testing.T) {
	for n := 0; n <= MaxSequenceNumber; n++ {
		id, err := FormatStepID("ABC123XY", "ML", n)
		require.NoError(t, err)
		require.Len(t, id, 13)
		require.True(t, IsStepID(id), id)

		parts, err := ParseStepID(id)
		require.NoError(t, err)
		require.Equal(t, StepIDParts{
			ExperimentID: "ABC123",
			FlowID:       "ABC123XY",
			StepTypeCode: "ML",
			Number:       n,
		}, parts)
	}
}

func TestFormatStepID_Rejects(t *testing.T) {
	_, err := FormatStepID("ABC123", "ML", 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = FormatStepID("ABC123XY", "M1", 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = FormatStepID("ABC123XY", "ML", 100)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestParseStepID_Invalid(t *testing.T) {
	_, err := ParseStepID("ABC123XY-ML")
	require.ErrorIs(t, err, ErrValidation)
}

func TestNextSequenceNumber(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     int
	}{
		{"empty flow", nil, 0},
		{"other types only", []string{"ABC123XY-CT00", "ABC123XY-CT01"}, 0},
		{"other flows ignored", []string{"ABC123XZ-ML05", "XYZ999XY-ML07"}, 0},
		{"sequential", []string{"ABC123XY-ML00", "ABC123XY-ML01"}, 2},
		{"gap is not reused", []string{"ABC123XY-ML00", "ABC123XY-ML05"}, 6},
		{"unordered input", []string{"ABC123XY-ML03", "ABC123XY-ML00", "ABC123XY-ML01"}, 4},
		{"malformed ignored", []string{"ABC123XY-MLxx", "ABC123XY-ML00"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextSequenceNumber(tt.existing, "ABC123XY", "ML")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNextSequenceNumber_SequentialUntilCapacity(t *testing.T) {
	var existing []string
	for want := 0; want <= MaxSequenceNumber; want++ {
		n, err := NextSequenceNumber(existing, "ABC123XY", "ML")
		require.NoError(t, err)
		require.Equal(t, want, n)
		existing = append(existing, fmt.Sprintf("ABC123XY-ML%02d", n))
	}

	_, err := NextSequenceNumber(existing, "ABC123XY", "ML")
	require.ErrorIs(t, err, ErrCapacityExceeded)

	n, err := NextSequenceNumber(existing, "ABC123XY", "CT")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
