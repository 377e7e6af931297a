package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("populate: %w", Wrap(CodeFAQ, "persist dataset failed", cause))

	require.ErrorIs(t, err, cause)
	require.True(t, IsCode(err, CodeFAQ))
	require.False(t, IsCode(err, CodeInvalidInput))
	require.Equal(t, "populate: persist dataset failed: disk full", err.Error())
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(CodeInvalidInput, "query cannot be empty", nil)
	require.Equal(t, "query cannot be empty", err.Error())
	require.Nil(t, errors.Unwrap(err))
	require.Equal(t, CodeInvalidInput, CodeOf(err))
	require.Empty(t, CodeOf(errors.New("plain")))
}
