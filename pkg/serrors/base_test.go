package serrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordwell/desk-sdk/pkg/serrors"
)

func TestBaseError_IsMatchesByCode(t *testing.T) {
	a := serrors.NewError("QUOTA_EXCEEDED", "limit reached")
	b := serrors.NewError("QUOTA_EXCEEDED", "different message")

	require.ErrorIs(t, a, b)
	require.NotErrorIs(t, a, serrors.NewError("OTHER", "limit reached"))
}

func TestWrap_KeepsCodeAndCause(t *testing.T) {
	base := serrors.NewError("QUOTA_EXCEEDED", "limit reached")
	cause := errors.New("42 rows over")

	wrapped := base.Wrap(cause)
	require.ErrorIs(t, wrapped, base)
	require.ErrorIs(t, wrapped, cause)

	var coded *serrors.BaseError
	require.ErrorAs(t, wrapped, &coded)
	require.Equal(t, "QUOTA_EXCEEDED", coded.Code)
	require.Contains(t, wrapped.Error(), "42 rows over")
}

func TestWrap_NilCause(t *testing.T) {
	base := serrors.NewError("X", "y")
	require.True(t, errors.Is(base.Wrap(nil), base))
}
