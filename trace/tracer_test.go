package trace

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmforge/pluginhost/domain/entities"
)

func TestDisabledTracerIsNoOp(t *testing.T) {
	tr := New(false, 10)
	rec := tr.Start("bin-1")
	assert.Nil(t, rec)

	rec.Event(entities.TraceExecutionStart, "should not panic")
	rec.Complete(true, nil)

	_, ok := tr.GetTrace("bin-1")
	assert.False(t, ok)
}

func TestRecordAndRetrieveTrace(t *testing.T) {
	tr := New(true, 10)
	rec := tr.Start("bin-1")
	require.NotNil(t, rec)
	rec.Event(entities.TraceExecutionStart, "begin")
	rec.Event(entities.TraceExecutionComplete, "ok")
	rec.Complete(true, nil)

	got, ok := tr.GetTrace("bin-1")
	require.True(t, ok)
	assert.True(t, got.Success)
	assert.Len(t, got.Events, 2)
	assert.Empty(t, got.Err)
}

func TestRecordFailure(t *testing.T) {
	tr := New(true, 10)
	rec := tr.Start("bin-1")
	rec.Complete(false, fmt.Errorf("boom"))

	got, ok := tr.GetTrace("bin-1")
	require.True(t, ok)
	assert.False(t, got.Success)
	assert.Equal(t, "boom", got.Err)
}

func TestRingBufferEvictsOldest(t *testing.T) {
	tr := New(true, 2)
	for i := 0; i < 3; i++ {
		rec := tr.Start(fmt.Sprintf("bin-%d", i))
		rec.Complete(true, nil)
	}

	all := tr.All()
	require.Len(t, all, 2)
	assert.Equal(t, "bin-1", all[0].BinaryID)
	assert.Equal(t, "bin-2", all[1].BinaryID)

	_, ok := tr.GetTrace("bin-0")
	assert.False(t, ok)
}

func TestGetTraceReturnsMostRecent(t *testing.T) {
	tr := New(true, 10)
	tr.Start("bin-1").Complete(true, nil)
	tr.Start("bin-1").Complete(false, fmt.Errorf("second"))

	got, ok := tr.GetTrace("bin-1")
	require.True(t, ok)
	assert.False(t, got.Success)
}
