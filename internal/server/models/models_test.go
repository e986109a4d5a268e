package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/vistoria/internal/common"
)

func TestInspectionStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to InspectionStatus
		ok       bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusPending, true},
		{StatusInProgress, StatusPending, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusCompleted, StatusApproved, true},
		{StatusCompleted, StatusRejected, true},
		{StatusApproved, StatusRejected, true},
		{StatusRejected, StatusCompleted, false},
		{StatusPending, StatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
			err := CheckTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrInvalidTransition)
				assert.ErrorIs(t, err, common.ErrValidation)
			}
		})
	}
}

func TestParseInspectionStatus(t *testing.T) {
	st, err := ParseInspectionStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, st)

	_, err = ParseInspectionStatus("archived")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestInspectionStatus_Done(t *testing.T) {
	assert.False(t, StatusPending.Done())
	assert.False(t, StatusInProgress.Done())
	assert.True(t, StatusCompleted.Done())
	assert.True(t, StatusApproved.Done())
	assert.True(t, StatusRejected.Done())
}

func TestCardStatus(t *testing.T) {
	for _, s := range []string{"ok", "defect", "non_compliant"} {
		st, err := ParseCardStatus(s)
		require.NoError(t, err)
		assert.True(t, st.Valid())
	}
	_, err := ParseCardStatus("broken")
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.False(t, CardOK.NeedsPhoto())
	assert.True(t, CardDefect.NeedsPhoto())
	assert.True(t, CardNonCompliant.NeedsPhoto())
}
