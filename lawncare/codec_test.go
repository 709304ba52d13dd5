package lawncare_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenround/visit-engine/lawncare"
)

func TestQueueCodec(t *testing.T) {
	var q lawncare.OverrideQueue
	q[0] = lawncare.Override{
		Active:             true,
		EffectiveDate:      day(2024, time.February, 1),
		OriginalDate:       day(2024, time.January, 29),
		IconOverrideActive: true,
		CustomFeatures:     &lawncare.FeatureSet{Aeration: true},
	}
	q[3] = lawncare.Override{Active: true, Cancelled: true, OriginalDate: day(2024, time.March, 13)}

	data, err := lawncare.EncodeQueue(q)
	require.NoError(t, err)

	decoded, err := lawncare.DecodeQueue(data, london)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-01", decoded[0].EffectiveDate.String())
	assert.Equal(t, "2024-01-29", decoded[0].OriginalDate.String())
	assert.Equal(t, q[0].CustomFeatures, decoded[0].CustomFeatures)
	assert.True(t, decoded[3].Cancelled)
	assert.True(t, decoded[3].EffectiveDate.IsZero())
	assert.Equal(t, lawncare.Override{}, decoded[5])
}

func TestDecodeQueue_Edges(t *testing.T) {
	empty, err := lawncare.DecodeQueue(nil, london)
	require.NoError(t, err)
	assert.Equal(t, lawncare.OverrideQueue{}, empty)

	_, err = lawncare.DecodeQueue([]byte(`[{"active":false}]`), london)
	assert.Error(t, err, "short queue")

	_, err = lawncare.DecodeQueue([]byte(`{`), london)
	assert.Error(t, err)

	// Inactive slots lose any stale data on decode.
	q, err := lawncare.DecodeQueue([]byte(`[{"active":false,"effective_date":1706745600,"cancelled":true},{},{},{},{},{}]`), london)
	require.NoError(t, err)
	assert.Equal(t, lawncare.Override{}, q[0])
}
