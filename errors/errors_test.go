package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorPreservesSentinel(t *testing.T) {
	wrapped := WrapError(ErrNotFound, "load dataset")
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "load dataset: no data has been uploaded yet", wrapped.Error())

	assert.Nil(t, WrapError(nil, "ignored"))
	assert.Nil(t, WrapErrorf(nil, "ignored %d", 1))
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		invalid   bool
		execution bool
	}{
		{"not_found", fmt.Errorf("chat: %w", ErrNotFound), true, false, false},
		{"unsupported", WrapErrorf(ErrUnsupportedFile, "file %q", "a.txt"), false, true, false},
		{"invalid", ErrInvalidInput, false, true, false},
		{"execution", WrapError(ErrExecution, "eval"), false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.invalid, IsInvalidInput(tt.err))
			assert.Equal(t, tt.execution, IsExecution(tt.err))
		})
	}
}
