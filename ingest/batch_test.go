package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(key, payload string) Record {
	return Record{Key: key, Payload: payload}
}

func TestAccumulatorCountThreshold(t *testing.T) {
	acc := NewAccumulator(2, 1<<30)

	assert.False(t, acc.Offer(rec("a", "{}")))
	assert.True(t, acc.Offer(rec("b", "{}")), "threshold must report crossed on the 2nd record")

	drained := acc.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].Key)
	assert.Equal(t, "b", drained[1].Key)

	assert.Zero(t, acc.Len())
	assert.Zero(t, acc.Bytes())
}

func TestAccumulatorSizeThreshold(t *testing.T) {
	acc := NewAccumulator(1000, 10)

	assert.False(t, acc.Offer(rec("a", "12345")))
	assert.Equal(t, int64(5), acc.Bytes())
	assert.True(t, acc.Offer(rec("b", "67890")), "10 bytes buffered crosses the 10-byte limit")
}

func TestAccumulatorRecordNeverSplit(t *testing.T) {
	// A record that alone exceeds the size limit still lands whole in the
	// current window.
	acc := NewAccumulator(1000, 4)

	assert.True(t, acc.Offer(rec("big", "0123456789")))
	drained := acc.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, "0123456789", drained[0].Payload)
}

func TestAccumulatorDrainEmpty(t *testing.T) {
	acc := NewAccumulator(2, 100)
	assert.Empty(t, acc.Drain())
}

func TestAccumulatorReusableAfterDrain(t *testing.T) {
	acc := NewAccumulator(2, 1<<30)

	acc.Offer(rec("a", "{}"))
	acc.Offer(rec("b", "{}"))
	acc.Drain()

	assert.False(t, acc.Offer(rec("c", "{}")), "count restarts from zero after a drain")
	assert.Equal(t, 1, acc.Len())
}
