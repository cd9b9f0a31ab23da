package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithInternalKeepsOriginal(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := ErrInternalServer.WithInternal(cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, ErrInternalServer.Code, err.Code)
	require.Contains(t, err.Error(), "connection refused")

	// The shared sentinel must stay untouched.
	require.Nil(t, ErrInternalServer.Internal)
}

func TestFromErrorPassesThroughAppErrors(t *testing.T) {
	require.Equal(t, ErrTooLate, FromError(ErrTooLate))
	require.Equal(t, ErrDuplicateRegistration, FromError(ErrDuplicateRegistration))

	wrapped := FromError(errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
}

func TestDomainSentinelsCarryUserFacingStatus(t *testing.T) {
	require.Equal(t, http.StatusConflict, ErrSeatTaken.StatusCode)
	require.Equal(t, http.StatusConflict, ErrDuplicateRegistration.StatusCode)
	require.Equal(t, http.StatusNotFound, ErrInvalidToken.StatusCode)
	require.Equal(t, http.StatusForbidden, ErrTooLate.StatusCode)
	require.Equal(t, http.StatusForbidden, ErrSurveyClosed.StatusCode)
}
