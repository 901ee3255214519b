package persist

import (
	"context"
	"testing"

	"github.com/go-flo/flo/datasource/slice"
	"github.com/go-flo/flo/ops/action"
	"github.com/go-flo/flo/ops/transform"
	"github.com/stretchr/testify/require"
)

type reading struct {
	Sensor string
	Value  float64
}

func createReadings(n int) []reading {
	readings := make([]reading, n)
	for i := range readings {
		readings[i] = reading{Sensor: "s", Value: float64(i)}
	}
	return readings
}

func TestPersistRoundTrip(t *testing.T) {
	data := createReadings(100)
	for _, level := range []StorageLevel{Memory, MemoryCompressed, Disk} {
		pf, err := Persist(context.Background(), slice.CreateFlow(data, 4), level, &Conf{Dir: t.TempDir()})
		require.Nil(t, err)
		require.Equal(t, 4, pf.NumPartitions())
		items, err := action.ToSlice[reading](context.Background(), pf)
		require.Nil(t, err)
		require.ElementsMatch(t, data, items)
		require.Nil(t, pf.Drop())
	}
}

func TestPersistedFlowIsReusable(t *testing.T) {
	data := createReadings(50)
	pf, err := Cache(context.Background(), slice.CreateFlow(data, 3))
	require.Nil(t, err)
	defer pf.Drop()
	// draw from the materialization twice, once through a downstream
	// combinator
	count, err := action.Count[reading](context.Background(), pf)
	require.Nil(t, err)
	require.Equal(t, int64(50), count)
	total, err := action.SumBy[reading](context.Background(), pf, func(r reading) (float64, error) {
		return r.Value, nil
	})
	require.Nil(t, err)
	require.Equal(t, 1225.0, total)
}

func TestPersistedFlowComposesDownstream(t *testing.T) {
	pf, err := Cache(context.Background(), slice.CreateFlow(createReadings(10), 2))
	require.Nil(t, err)
	defer pf.Drop()
	big := transform.Filter[reading](pf, func(r reading) (bool, error) {
		return r.Value >= 5, nil
	})
	count, err := action.Count(context.Background(), big)
	require.Nil(t, err)
	require.Equal(t, int64(5), count)
}

func TestDropForbidsFurtherReads(t *testing.T) {
	pf, err := Cache(context.Background(), slice.CreateFlow(createReadings(5), 1))
	require.Nil(t, err)
	require.Nil(t, pf.Drop())
	_, err = action.ToSlice[reading](context.Background(), pf)
	require.NotNil(t, err)
}
