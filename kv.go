package flo

// KV is a keyed value, the element type produced by keyed combinators such
// as FoldBy, CountBy and GroupBy.
type KV[K comparable, V any] struct {
	Key   K
	Value V
}
