package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	assert.Equal(t, "no root chunk", NotFound("no root chunk").Error())

	wrapped := Wrap(errors.New("boom"), ErrCodePersistence, "insert failed")
	assert.Equal(t, "insert failed: boom", wrapped.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, ErrCodePersistence, "query failed")

	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrCodePersistence, appErr.Code)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "ignored %d", 1))
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFoundf("chunk %s", "c1")))
	assert.True(t, IsValidation(ValidationField("model_id", "model id is required")))
	assert.True(t, IsConflict(Conflict("duplicate")))
	assert.True(t, IsContextWindow(ContextWindowf("prompt is %d tokens", 9000)))
	assert.True(t, IsPersistence(Persistence("db down")))
	assert.True(t, IsContinuation(Continuationf("missing %s", "user_jwt")))

	assert.False(t, IsNotFound(Validation("bad")))
	assert.False(t, IsValidation(errors.New("plain")))
	assert.False(t, IsValidation(nil))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolve chain: %w", NotFound("no root chunk"))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ErrCodeNotFound, GetCode(err))
}

func TestIsRetryable(t *testing.T) {
	nonRetryable := []*AppError{
		Validation("bad payload"),
		NotFound("no template"),
		ContextWindow("too large"),
		Continuation("unsafe"),
		Conflict("duplicate"),
	}
	for _, err := range nonRetryable {
		assert.False(t, IsRetryable(err), "code %s", err.Code)
	}

	retryable := []error{
		Persistence("db down"),
		Internal("unexpected"),
		&AppError{Code: ErrCodeTimeout, Message: "timed out"},
		&AppError{Code: ErrCodeCanceled, Message: "canceled"},
		errors.New("untyped"),
	}
	for _, err := range retryable {
		assert.True(t, IsRetryable(err), "error %v", err)
	}
}

func TestGetCodeAndField(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, GetCode(ValidationField("walletId", "required")))
	assert.Equal(t, "walletId", GetField(ValidationField("walletId", "required")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, "", GetField(errors.New("plain")))
}
