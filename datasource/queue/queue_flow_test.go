package queue

import (
	"context"
	"strconv"
	"testing"

	"github.com/go-flo/flo/datasource/slice"
	"github.com/go-flo/flo/ops/action"
	"github.com/go-flo/flo/queue/memory"
	"github.com/stretchr/testify/require"
)

func encodeInt(item int) ([]byte, error) {
	return []byte(strconv.Itoa(item)), nil
}

func decodeInt(body []byte) (int, error) {
	return strconv.Atoi(string(body))
}

func TestQueueFlowDrainsQueue(t *testing.T) {
	q := memory.CreateQueue(nil)
	ctx := context.Background()
	bodies := make([][]byte, 20)
	for i := range bodies {
		bodies[i] = []byte(strconv.Itoa(i))
	}
	require.Nil(t, q.EnqueueBatch(ctx, bodies))
	items, err := action.ToSlice[int](ctx, CreateFlow(q, decodeInt, &Conf{NumPartitions: 3, BatchSize: 4}))
	require.Nil(t, err)
	require.Len(t, items, 20)
	// every message was released
	count, err := q.Count(ctx)
	require.Nil(t, err)
	require.Equal(t, int64(0), count)
}

func TestQueueFlowFaultsOnDecodeError(t *testing.T) {
	q := memory.CreateQueue(&memory.Conf{MaxDeliveries: 1})
	ctx := context.Background()
	require.Nil(t, q.Enqueue(ctx, []byte("not-a-number")))
	_, err := action.ToSlice[int](ctx, CreateFlow(q, decodeInt, &Conf{NumPartitions: 1}))
	require.NotNil(t, err)
	// the fault spent the message's only delivery
	require.Equal(t, 1, q.DeadLetterCount())
}

func TestDrain(t *testing.T) {
	q := memory.CreateQueue(nil)
	ctx := context.Background()
	fl := slice.CreateFlow([]int{1, 2, 3, 4, 5}, 2)
	require.Nil(t, Drain(ctx, fl, q, encodeInt, 2))
	count, err := q.Count(ctx)
	require.Nil(t, err)
	require.Equal(t, int64(5), count)
	// round-trip back out of the queue
	total, err := action.Sum[int](ctx, CreateFlow(q, decodeInt, nil))
	require.Nil(t, err)
	require.Equal(t, 15, total)
}
