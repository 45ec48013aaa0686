package recompute

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherSerializesSameKey(t *testing.T) {
	var mu sync.Mutex
	order := make(map[string][]string)
	done := make(chan struct{}, 12)

	handler := func(ctx context.Context, task Task) error {
		mu.Lock()
		order[task.Key] = append(order[task.Key], task.Type)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	d := NewDispatcher(handler, Config{Workers: 4, BufferSize: 16})
	d.Start(context.Background())
	defer d.Stop()

	for i := 0; i < 4; i++ {
		require.NoError(t, d.Enqueue(Task{Key: "composite:stu1:unit1", Type: typeLabel(i)}))
	}
	require.NoError(t, d.Enqueue(Task{Key: "balance:stu2", Type: "t0"}))

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"t0", "t1", "t2", "t3"}, order["composite:stu1:unit1"])
	assert.Len(t, order["balance:stu2"], 1)
}

func TestDispatcherEnqueueBeforeStart(t *testing.T) {
	d := NewDispatcher(func(context.Context, Task) error { return nil }, Config{})
	err := d.Enqueue(Task{Key: "k"})
	require.Error(t, err)
}

func TestLaneForStable(t *testing.T) {
	a := laneFor("composite:stu1:unit1", 8)
	b := laneFor("composite:stu1:unit1", 8)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 8)
}

func typeLabel(i int) string {
	return string(rune('t')) + string(rune('0'+i))
}
