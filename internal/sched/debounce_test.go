package sched

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFiresOnce(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	d.Schedule("price", func() { calls.Add(1) })

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Pending("price"))
}

func TestSupersedingEditCancelsEarlier(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var got []string

	d.Schedule("description", func() {
		mu.Lock()
		got = append(got, "first")
		mu.Unlock()
	})
	d.Schedule("description", func() {
		mu.Lock()
		got = append(got, "second")
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"second"}, got)
}

func TestKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(15 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	d.Schedule("description", func() { calls.Add(1) })
	d.Schedule("careInstructions", func() { calls.Add(1) })

	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	d.Schedule("description", func() { calls.Add(1) })
	assert.True(t, d.Pending("description"))

	d.Cancel("description")
	assert.False(t, d.Pending("description"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestStopRejectsFurtherWork(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	var calls atomic.Int32
	d.Schedule("description", func() { calls.Add(1) })
	d.Stop()
	d.Schedule("description", func() { calls.Add(1) })

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
