package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldoarch/postenobicho-sub001/internal/apperr"
)

type sample struct {
	Amount int64  `json:"amount" validate:"gt=0"`
	Email  string `json:"email" validate:"omitempty,email"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Amount: 1}))

	err := Struct(sample{Amount: 0, Email: "nope"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{"amount": "gt", "email": "email"}, verr.Fields)
	assert.Equal(t, "invalid input: amount (gt), email (email)", err.Error())
}
