package chicks

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrCodeBelowMinimum, "Minimum purchase is 0.13 USDC.", nil)
	assert.Equal(t, "below_minimum: Minimum purchase is 0.13 USDC.", err.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("execution reverted")
	err := NewError(ErrCodeContractRevert, "The contract rejected the call.", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	err := NewError(ErrCodeUserRejected, "Rejected in the wallet.", nil)
	assert.True(t, IsCode(err, ErrCodeUserRejected))
	assert.False(t, IsCode(err, ErrCodeNoProvider))

	// Codes survive wrapping.
	wrapped := fmt.Errorf("connect: %w", err)
	assert.True(t, IsCode(wrapped, ErrCodeUserRejected))

	assert.False(t, IsCode(errors.New("plain"), ErrCodeUserRejected))
	assert.False(t, IsCode(nil, ErrCodeUserRejected))
}
