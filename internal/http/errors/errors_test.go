package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrForbidden.WithDetail("token expired"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FORBIDDEN", body["code"])
	assert.Equal(t, "token expired", body["detail"])
}

func TestWriteError_GenericErrorDoesNotLeak(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("pq: connection refused at 10.0.0.3"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	assert.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	_ = ErrUnauthenticated.WithDetail("x")
	assert.Empty(t, ErrUnauthenticated.Detail)
}

func TestIs_MatchesCopiesByCode(t *testing.T) {
	wrapped := fmt.Errorf("gate: %w", ErrForbidden.WithDetail("expired"))
	assert.True(t, stderrors.Is(wrapped, ErrForbidden))
	assert.False(t, stderrors.Is(wrapped, ErrUnauthenticated))
	assert.Equal(t, "FORBIDDEN", FromError(wrapped).Code)
}
