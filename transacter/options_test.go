package transacter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shardedkit/transacter-go/transacter"
)

func Test_DefaultOptions_HasDocumentedDefaults(t *testing.T) {
	options := transacter.DefaultOptions()

	assert.Equal(t, 2, options.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, options.MinRetryDelay)
	assert.Equal(t, 1*time.Second, options.MaxRetryDelay)
	assert.Equal(t, 400*time.Millisecond, options.RetryJitter)
	assert.False(t, options.ReadOnly)
	assert.Empty(t, options.DisabledChecks)
}

func Test_Options_DerivationLeavesReceiverUntouched(t *testing.T) {
	base := transacter.DefaultOptions()

	derived := base.
		WithMaxAttempts(5).
		AsReadOnly().
		WithDisabledCheck(transacter.CheckCowrite)

	assert.Equal(t, 5, derived.MaxAttempts)
	assert.True(t, derived.ReadOnly)
	assert.True(t, derived.DisabledChecks.Contains(transacter.CheckCowrite))

	assert.Equal(t, 2, base.MaxAttempts, "base options should keep their attempt bound")
	assert.False(t, base.ReadOnly, "base options should stay read-write")
	assert.False(t, base.DisabledChecks.Contains(transacter.CheckCowrite), "base options should keep checks enabled")
}

func Test_Options_NoRetries_RunsExactlyOneAttempt(t *testing.T) {
	options := transacter.DefaultOptions().NoRetries()

	assert.Equal(t, 1, options.MaxAttempts)
}

func Test_Options_Validate(t *testing.T) {
	assert.NoError(t, transacter.DefaultOptions().Validate())

	err := transacter.DefaultOptions().WithMaxAttempts(0).Validate()
	assert.ErrorIs(t, err, transacter.ErrInvalidMaxAttempts)
}
