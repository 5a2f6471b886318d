package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	Init()

	type input struct {
		Name  string `validate:"required"`
		Count int    `validate:"gte=0"`
	}

	t.Run("should pass for a valid struct", func(t *testing.T) {
		err := Validate(input{Name: "tx", Count: 3})
		require.NoError(t, err)
	})

	t.Run("should return ErrValidation when a required field is missing", func(t *testing.T) {
		err := Validate(input{Count: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "'Name'")
	})

	t.Run("should report every violated field", func(t *testing.T) {
		err := Validate(input{Count: -1})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "'Name'")
		assert.Contains(t, err.Error(), "'Count'")
	})
}
