package admin_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/vault/admin"
)

func TestRecoveryReasonText(t *testing.T) {
	for _, r := range []admin.RecoveryReason{
		admin.ReasonAccidentalTransfer,
		admin.ReasonDeprecatedFlow,
		admin.ReasonUnreachableSubscriber,
	} {
		t.Run(r.String(), func(t *testing.T) {
			data, err := json.Marshal(r)
			require.NoError(t, err)

			var back admin.RecoveryReason
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, r, back)
			assert.True(t, back.IsValid())
		})
	}
}

func TestRecoveryReasonUnknown(t *testing.T) {
	assert.False(t, admin.RecoveryReason(7).IsValid())
	assert.Equal(t, "reason(7)", admin.RecoveryReason(7).String())

	_, err := admin.ParseRecoveryReason("lost_keys")
	assert.Error(t, err)
}
