package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil.
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrIndexBuild", ErrIndexBuild},
		{"ErrRebuildInProgress", ErrRebuildInProgress},
		{"ErrSynthesisUnavailable", ErrSynthesisUnavailable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrWebSearchUnavailable", ErrWebSearchUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrIndexBuild, ErrRebuildInProgress))
	assert.False(t, errors.Is(ErrSynthesisUnavailable, ErrLLMUnavailable))
}

func TestErrors_WrappingSurvivesIs(t *testing.T) {
	wrapped := fmt.Errorf("rebuild scope %q: %w", "s1", ErrIndexBuild)
	assert.True(t, errors.Is(wrapped, ErrIndexBuild))

	wrapped = fmt.Errorf("synthesize: %w: %w", ErrSynthesisUnavailable, errors.New("timeout"))
	assert.True(t, errors.Is(wrapped, ErrSynthesisUnavailable))
}
