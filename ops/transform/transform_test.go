package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/go-flo/flo"
	"github.com/go-flo/flo/datasource/slice"
	"github.com/go-flo/flo/ops/action"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	fl := Map(slice.CreateFlow([]int{1, 2, 3}, 2), func(item int) (int, error) {
		return item * 10, nil
	})
	items, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.ElementsMatch(t, []int{10, 20, 30}, items)
}

func TestMapChangesElementType(t *testing.T) {
	fl := Map(slice.CreateFlow([]string{"a", "bb", "ccc"}, 2), func(item string) (int, error) {
		return len(item), nil
	})
	total, err := action.Sum(context.Background(), fl)
	require.Nil(t, err)
	require.Equal(t, 6, total)
}

func TestFilter(t *testing.T) {
	fl := Filter(slice.CreateFlow([]int{1, 2, 3, 4, 5, 6}, 3), func(item int) (bool, error) {
		return item%2 == 0, nil
	})
	items, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.ElementsMatch(t, []int{2, 4, 6}, items)
}

func TestChoose(t *testing.T) {
	// map and filter in one pass
	fl := Choose(slice.CreateFlow([]string{"1", "x", "3"}, 2), func(s string) (int, bool, error) {
		if s == "x" {
			return 0, false, nil
		}
		return len(s), true, nil
	})
	count, err := action.Count(context.Background(), fl)
	require.Nil(t, err)
	require.Equal(t, int64(2), count)
}

func TestFlatMap(t *testing.T) {
	fl := FlatMap(slice.CreateFlow([]string{"a b", "c d e"}, 2), func(item string, emit func(string) error) error {
		for _, word := range strings.Fields(item) {
			if err := emit(word); err != nil {
				return err
			}
		}
		return nil
	})
	items, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, items)
}

func TestPeek(t *testing.T) {
	var seen int64
	fl := Peek(slice.CreateFlow([]int{1, 2, 3}, 1), func(item int) error {
		seen++
		return nil
	})
	items, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.Len(t, items, 3)
	require.Equal(t, int64(3), seen)
}

func TestCountByIsPartitioningInsensitive(t *testing.T) {
	data := []string{"a", "b", "a", "c", "b", "a"}
	identity := func(s string) (string, error) { return s, nil }
	for _, numPartitions := range []int{1, 2, 4} {
		fl := CountBy(slice.CreateFlow(data, numPartitions), identity)
		pairs, err := action.ToSlice(context.Background(), fl)
		require.Nil(t, err)
		counts := make(map[string]int64)
		for _, kv := range pairs {
			counts[kv.Key] = kv.Value
		}
		require.Equal(t, map[string]int64{"a": 3, "b": 2, "c": 1}, counts)
	}
}

func TestFoldBy(t *testing.T) {
	type sale struct {
		region string
		amount int
	}
	fl := FoldBy(slice.CreateFlow([]sale{
		{"east", 10},
		{"west", 5},
		{"east", 7},
	}, 2),
		func(s sale) (string, error) { return s.region, nil },
		func() int { return 0 },
		func(sum int, s sale) (int, error) { return sum + s.amount, nil },
		func(a, b int) (int, error) { return a + b, nil },
	)
	pairs, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	sums := make(map[string]int)
	for _, kv := range pairs {
		sums[kv.Key] = kv.Value
	}
	require.Equal(t, map[string]int{"east": 17, "west": 5}, sums)
}

func TestReduceBy(t *testing.T) {
	fl := ReduceBy(slice.CreateFlow([]int{3, 14, 8, 21, 5}, 3),
		func(item int) (int, error) { return item % 2, nil },
		func(a, b int) (int, error) {
			if a > b {
				return a, nil
			}
			return b, nil
		},
	)
	pairs, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	maxes := make(map[int]int)
	for _, kv := range pairs {
		maxes[kv.Key] = kv.Value
	}
	require.Equal(t, map[int]int{0: 14, 1: 21}, maxes)
}

func TestGroupBy(t *testing.T) {
	fl := GroupBy(slice.CreateFlow([]int{1, 2, 3, 4, 5}, 2),
		func(item int) (bool, error) { return item%2 == 0, nil })
	pairs, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.Len(t, pairs, 2)
	groups := make(map[bool][]int)
	for _, kv := range pairs {
		groups[kv.Key] = kv.Value
	}
	require.ElementsMatch(t, []int{2, 4}, groups[true])
	require.ElementsMatch(t, []int{1, 3, 5}, groups[false])
}

func TestDistinct(t *testing.T) {
	fl := Distinct(slice.CreateFlow([]int{1, 2, 1, 3, 2, 1}, 3))
	items, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.ElementsMatch(t, []int{1, 2, 3}, items)
}

func TestDistinctBy(t *testing.T) {
	fl := DistinctBy(slice.CreateFlow([]string{"apple", "avocado", "banana", "cherry"}, 2),
		func(s string) (byte, error) { return s[0], nil })
	count, err := action.Count(context.Background(), fl)
	require.Nil(t, err)
	require.Equal(t, int64(3), count)
}

func TestJoinCardinality(t *testing.T) {
	type pair = flo.KV[int, string]
	left := slice.CreateFlow([]pair{{Key: 1, Value: "x"}, {Key: 1, Value: "y"}, {Key: 2, Value: "z"}}, 2)
	right := slice.CreateFlow([]pair{{Key: 1, Value: "p"}, {Key: 3, Value: "q"}}, 2)
	key := func(kv pair) (int, error) { return kv.Key, nil }
	rows, err := action.ToSlice(context.Background(), Join(left, right, key, key))
	require.Nil(t, err)
	// key 1: 2x1 = 2 rows; keys 2 and 3 are one-sided and contribute none
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, 1, row.Key)
		require.Equal(t, "p", row.Right.Value)
	}
}

func TestLeftOuterJoinCompleteness(t *testing.T) {
	type pair = flo.KV[int, string]
	left := slice.CreateFlow([]pair{{Key: 1, Value: "x"}, {Key: 2, Value: "z"}}, 2)
	right := slice.CreateFlow([]pair{{Key: 1, Value: "p"}}, 1)
	key := func(kv pair) (int, error) { return kv.Key, nil }
	rows, err := action.ToSlice(context.Background(), LeftOuterJoin(left, right, key, key))
	require.Nil(t, err)
	require.Len(t, rows, 2)
	matched := make(map[int]bool)
	for _, row := range rows {
		matched[row.Key] = row.Right.IsSome()
	}
	require.True(t, matched[1])
	require.False(t, matched[2])
}

func TestFullOuterJoin(t *testing.T) {
	type pair = flo.KV[int, string]
	left := slice.CreateFlow([]pair{{Key: 1, Value: "x"}, {Key: 2, Value: "z"}}, 1)
	right := slice.CreateFlow([]pair{{Key: 1, Value: "p"}, {Key: 3, Value: "q"}}, 1)
	key := func(kv pair) (int, error) { return kv.Key, nil }
	rows, err := action.ToSlice(context.Background(), FullOuterJoin(left, right, key, key))
	require.Nil(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.True(t, row.Left.IsSome() || row.Right.IsSome())
		switch row.Key {
		case 1:
			require.True(t, row.Left.IsSome())
			require.True(t, row.Right.IsSome())
		case 2:
			require.False(t, row.Right.IsSome())
		case 3:
			require.False(t, row.Left.IsSome())
		}
	}
}

func TestGroupJoinBy(t *testing.T) {
	left := slice.CreateFlow([]int{10, 11, 20}, 2)
	right := slice.CreateFlow([]int{12, 30}, 1)
	tens := func(n int) (int, error) { return n / 10, nil }
	pairs, err := action.ToSlice(context.Background(), GroupJoinBy(left, right, tens, tens))
	require.Nil(t, err)
	groups := make(map[int]JoinGroup[int, int])
	for _, kv := range pairs {
		groups[kv.Key] = kv.Value
	}
	require.ElementsMatch(t, []int{10, 11}, groups[1].Lefts)
	require.ElementsMatch(t, []int{12}, groups[1].Rights)
	require.ElementsMatch(t, []int{20}, groups[2].Lefts)
	require.Len(t, groups[2].Rights, 0)
	require.Len(t, groups[3].Lefts, 0)
	require.ElementsMatch(t, []int{30}, groups[3].Rights)
}

func TestTakeReturnsExactlyN(t *testing.T) {
	data := make([]int, 50)
	for i := range data {
		data[i] = i
	}
	for _, n := range []int{1, 7, 50, 100} {
		items, err := action.ToSlice(context.Background(), Take(slice.CreateFlow(data, 4), n))
		require.Nil(t, err)
		expected := n
		if expected > len(data) {
			expected = len(data)
		}
		require.Len(t, items, expected)
		// every element must come from the source
		for _, item := range items {
			require.GreaterOrEqual(t, item, 0)
			require.Less(t, item, 50)
		}
	}
}

func TestTakeOfNonPositiveN(t *testing.T) {
	items, err := action.ToSlice(context.Background(), Take(slice.CreateFlow([]int{1, 2, 3}, 2), 0))
	require.Nil(t, err)
	require.Len(t, items, 0)
}

func TestSortBy(t *testing.T) {
	fl := SortBy(slice.CreateFlow([]int{5, 3, 8, 1, 9, 2}, 3),
		func(item int) (int, error) { return item, nil }, 4)
	items, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.Equal(t, []int{1, 2, 3, 5}, items)
}

func TestSortByDescending(t *testing.T) {
	fl := SortByDescending(slice.CreateFlow([]string{"pear", "fig", "apple"}, 2),
		func(s string) (int, error) { return len(s), nil }, 2)
	items, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.Equal(t, []string{"apple", "pear"}, items)
}

func TestSortByUsing(t *testing.T) {
	fl := SortByUsing(slice.CreateFlow([]string{"b", "c", "a"}, 2),
		func(s string) (string, error) { return s, nil },
		func(a, b string) int { return strings.Compare(a, b) }, 3)
	items, err := action.ToSlice(context.Background(), fl)
	require.Nil(t, err)
	require.Equal(t, []string{"a", "b", "c"}, items)
}
