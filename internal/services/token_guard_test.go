package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGuard_Check(t *testing.T) {
	guard := NewTokenGuard(charCounter{}, 10)

	count, err := guard.Check(strings.Repeat("a", 10))
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	count, err = guard.Check(strings.Repeat("a", 11))
	require.Error(t, err)
	assert.Equal(t, 11, count)

	var tooLarge *TooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 11, tooLarge.Tokens)
	assert.Equal(t, 10, tooLarge.Ceiling)
	assert.Contains(t, tooLarge.Error(), "11")
}

func TestTokenGuard_CounterError(t *testing.T) {
	guard := NewTokenGuard(charCounter{err: errBoom}, 10)

	_, err := guard.Check("abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)

	var tooLarge *TooLargeError
	assert.False(t, errors.As(err, &tooLarge))
}

func TestProperty_TokenGuardBoundary(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("accepts exactly up to the ceiling", prop.ForAll(
		func(ceiling, length int) bool {
			guard := NewTokenGuard(charCounter{}, ceiling)
			count, err := guard.Check(strings.Repeat("x", length))
			if count != length {
				return false
			}
			if length <= ceiling {
				return err == nil
			}
			var tooLarge *TooLargeError
			return errors.As(err, &tooLarge) && tooLarge.Tokens == length
		},
		gen.IntRange(0, 500),
		gen.IntRange(0, 600),
	))

	properties.TestingRun(t)
}
