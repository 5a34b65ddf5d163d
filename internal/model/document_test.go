package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := map[DocumentStatus][]DocumentStatus{
		StatusPending:    {StatusProcessing, StatusFailed},
		StatusProcessing: {StatusReady, StatusFailed},
		StatusReady:      {StatusPending},
		StatusFailed:     {StatusPending},
	}
	all := []DocumentStatus{StatusPending, StatusProcessing, StatusReady, StatusFailed}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				want = want || a == to
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition("archived", StatusPending))
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, ValidateTransition(StatusPending, StatusProcessing))
	err := ValidateTransition(StatusReady, StatusProcessing)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "ready -> processing")
}

func TestContentTypeValid(t *testing.T) {
	for _, ct := range []ContentType{ContentTypePDF, ContentTypeDOCX, ContentTypeText, ContentTypeWebsite} {
		assert.True(t, ct.Valid(), ct)
	}
	assert.False(t, ContentType("xlsx").Valid())
	assert.False(t, ContentType("").Valid())
}
