package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfClassifiedError(t *testing.T) {
	err := New(KindValidation, SeverityMedium, "objective must not be empty")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	inner := New(KindExternalService, SeverityHigh, "request timed out")
	wrapped := fmt.Errorf("calling completion endpoint: %w", inner)

	assert.Equal(t, KindExternalService, KindOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindExternalService, SeverityHigh, "postgres unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "postgres unavailable")
	assert.Contains(t, err.Error(), "connection refused")

	var classified *Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, SeverityHigh, classified.Severity)
}

func TestWithContextAccumulates(t *testing.T) {
	err := New(KindDependencyResolution, SeverityHigh, "no agent supports objective").
		WithContext("objective", "translate").
		WithContext("step", 2)

	assert.Equal(t, "translate", err.Context["objective"])
	assert.Equal(t, 2, err.Context["step"])
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(KindExternalService, SeverityHigh, "timeout")))
	assert.False(t, IsRetryable(New(KindValidation, SeverityMedium, "bad input")))
	assert.False(t, IsRetryable(New(KindBusinessLogic, SeverityMedium, "rule violated")))
	assert.False(t, IsRetryable(New(KindConfiguration, SeverityCritical, "missing key")))
	assert.False(t, IsRetryable(errors.New("unclassified")))
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(KindConfiguration, SeverityCritical, "agent %q requires an LLM", "writer")
	assert.Contains(t, err.Error(), `agent "writer" requires an LLM`)
}
