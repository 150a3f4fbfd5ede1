package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault/subscription"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]subscription.Status]bool{
		{subscription.StatusActive, subscription.StatusPaused}:                 true,
		{subscription.StatusActive, subscription.StatusCancelled}:              true,
		{subscription.StatusActive, subscription.StatusInsufficientBalance}:    true,
		{subscription.StatusPaused, subscription.StatusActive}:                 true,
		{subscription.StatusPaused, subscription.StatusCancelled}:              true,
		{subscription.StatusInsufficientBalance, subscription.StatusActive}:    true,
		{subscription.StatusInsufficientBalance, subscription.StatusCancelled}: true,
	}

	for _, from := range subscription.Statuses() {
		for _, to := range subscription.Statuses() {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				want := from == to || allowed[[2]subscription.Status{from, to}]
				assert.Equal(t, want, subscription.CanTransition(from, to))
			})
		}
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	assert.True(t, subscription.StatusCancelled.IsTerminal())
	assert.Empty(t, subscription.AllowedTransitions(subscription.StatusCancelled))
	assert.True(t, subscription.CanTransition(subscription.StatusCancelled, subscription.StatusCancelled))
}

func TestUnknownStatus(t *testing.T) {
	unknown := subscription.Status("expired")
	assert.False(t, unknown.IsValid())
	assert.False(t, subscription.CanTransition(unknown, unknown))
	assert.False(t, subscription.CanTransition(subscription.StatusActive, unknown))
}

func TestAllowedTransitionsIsCopy(t *testing.T) {
	got := subscription.AllowedTransitions(subscription.StatusActive)
	require.Len(t, got, 3)
	got[0] = subscription.StatusCancelled

	assert.Equal(t, subscription.StatusPaused, subscription.AllowedTransitions(subscription.StatusActive)[0])
}

func TestParseID(t *testing.T) {
	got, err := subscription.ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, subscription.ID(42), got)
	assert.Equal(t, "42", got.String())

	_, err = subscription.ParseID("-1")
	assert.Error(t, err)
}
