package action

import (
	"context"
	"testing"

	"github.com/go-flo/flo/datasource/slice"
	errors "github.com/go-flo/flo/errors"
	"github.com/go-flo/flo/stats"
	"github.com/stretchr/testify/require"
)

func TestFoldIsPartitioningInsensitive(t *testing.T) {
	data := make([]int, 100)
	for i := range data {
		data[i] = i + 1
	}
	sum := func(a, b int) (int, error) { return a + b, nil }
	// the same fold over 1, 3 and 7 partitions must agree
	for _, numPartitions := range []int{1, 3, 7} {
		total, err := Fold(context.Background(), slice.CreateFlow(data, numPartitions),
			func() int { return 0 }, sum, sum)
		require.Nil(t, err)
		require.Equal(t, 5050, total)
	}
}

func TestSumAndCount(t *testing.T) {
	fl := slice.CreateFlow([]int{3, 1, 4, 1, 5, 9, 2, 6}, 4)
	total, err := Sum(context.Background(), fl)
	require.Nil(t, err)
	require.Equal(t, 31, total)
	count, err := Count(context.Background(), fl)
	require.Nil(t, err)
	require.Equal(t, int64(8), count)
}

func TestSumOfEmptyFlowIsZero(t *testing.T) {
	total, err := Sum(context.Background(), slice.CreateFlow([]float64{}, 2))
	require.Nil(t, err)
	require.Equal(t, 0.0, total)
}

func TestAverage(t *testing.T) {
	avg, err := Average(context.Background(), slice.CreateFlow([]int{2, 4, 6, 8}, 2))
	require.Nil(t, err)
	require.Equal(t, 5.0, avg)
	_, err = Average(context.Background(), slice.CreateFlow([]int{}, 2))
	require.IsType(t, errors.EmptyInputError{}, err)
}

func TestReduce(t *testing.T) {
	max := func(a, b int) (int, error) {
		if a > b {
			return a, nil
		}
		return b, nil
	}
	result, err := Reduce(context.Background(), slice.CreateFlow([]int{3, 9, 1, 7}, 3), max)
	require.Nil(t, err)
	require.Equal(t, 9, result)
	_, err = Reduce(context.Background(), slice.CreateFlow([]int{}, 3), max)
	require.IsType(t, errors.EmptyInputError{}, err)
}

func TestMinByMaxBy(t *testing.T) {
	type city struct {
		name string
		pop  int
	}
	fl := slice.CreateFlow([]city{
		{"tokyo", 37},
		{"lagos", 15},
		{"reykjavik", 1},
	}, 2)
	pop := func(c city) (int, error) { return c.pop, nil }
	biggest, err := MaxBy(context.Background(), fl, pop)
	require.Nil(t, err)
	require.Equal(t, "tokyo", biggest.name)
	smallest, err := MinBy(context.Background(), fl, pop)
	require.Nil(t, err)
	require.Equal(t, "reykjavik", smallest.name)
	_, err = MaxBy(context.Background(), slice.CreateFlow([]city{}, 2), pop)
	require.IsType(t, errors.EmptyInputError{}, err)
}

func TestToSliceOfEmptyFlow(t *testing.T) {
	items, err := ToSlice(context.Background(), slice.CreateFlow([]string{}, 4))
	require.Nil(t, err)
	require.Len(t, items, 0)
}

func TestToSlicePreservesElements(t *testing.T) {
	data := []string{"a", "b", "c", "d", "e"}
	items, err := ToSlice(context.Background(), slice.CreateFlow(data, 2))
	require.Nil(t, err)
	require.ElementsMatch(t, data, items)
}

func TestTryFind(t *testing.T) {
	data := make([]int, 100)
	for i := range data {
		data[i] = i
	}
	found, ok, err := TryFind(context.Background(), slice.CreateFlow(data, 4),
		func(item int) (bool, error) { return item%10 == 7, nil })
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, 7, found%10)
	_, ok, err = TryFind(context.Background(), slice.CreateFlow(data, 4),
		func(item int) (bool, error) { return item > 1000, nil })
	require.Nil(t, err)
	require.False(t, ok)
}

func TestTryFindShortCircuitsWithinPartition(t *testing.T) {
	data := make([]int, 1000)
	for i := range data {
		data[i] = i
	}
	rec := stats.NewRecorder()
	ctx := stats.NewContext(context.Background(), rec)
	// a single partition consumes sequentially, so a match at index 10
	// must stop ingestion long before the end
	_, ok, err := TryFind(ctx, slice.CreateFlow(data, 1),
		func(item int) (bool, error) { return item == 10, nil })
	require.Nil(t, err)
	require.True(t, ok)
	require.GreaterOrEqual(t, rec.ElementsConsumed(), int64(11))
	require.Less(t, rec.ElementsConsumed(), int64(1000))
}

func TestFindReportsNotFound(t *testing.T) {
	_, err := Find(context.Background(), slice.CreateFlow([]int{1, 2, 3}, 2),
		func(item int) (bool, error) { return item > 10, nil })
	require.IsType(t, errors.NotFoundError{}, err)
}

func TestPick(t *testing.T) {
	fl := slice.CreateFlow([]string{"x", "12", "y"}, 2)
	n, err := Pick(context.Background(), fl, func(s string) (int, bool, error) {
		if s == "12" {
			return 12, true, nil
		}
		return 0, false, nil
	})
	require.Nil(t, err)
	require.Equal(t, 12, n)
}

func TestExistsAndForAll(t *testing.T) {
	fl := slice.CreateFlow([]int{2, 4, 6, 7}, 2)
	even := func(item int) (bool, error) { return item%2 == 0, nil }
	ok, err := Exists(context.Background(), fl, even)
	require.Nil(t, err)
	require.True(t, ok)
	all, err := ForAll(context.Background(), fl, even)
	require.Nil(t, err)
	require.False(t, all)
	all, err = ForAll(context.Background(), slice.CreateFlow([]int{2, 4, 6}, 2), even)
	require.Nil(t, err)
	require.True(t, all)
	// vacuous truth over an empty flow
	all, err = ForAll(context.Background(), slice.CreateFlow([]int{}, 2), even)
	require.Nil(t, err)
	require.True(t, all)
}

func TestIsEmpty(t *testing.T) {
	empty, err := IsEmpty[int](context.Background(), slice.CreateFlow([]int{}, 2))
	require.Nil(t, err)
	require.True(t, empty)
	empty, err = IsEmpty[int](context.Background(), slice.CreateFlow([]int{1}, 2))
	require.Nil(t, err)
	require.False(t, empty)
}

func TestIter(t *testing.T) {
	var total int64
	err := Iter(context.Background(), slice.CreateFlow([]int{1, 2, 3}, 1), func(item int) error {
		total += int64(item)
		return nil
	})
	require.Nil(t, err)
	require.Equal(t, int64(6), total)
}
