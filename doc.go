// Package flo implements a data-parallel execution engine for partitioned
// collections. A Flow is a lazy, reusable description of a computation over
// a partitioned source; combinators in ops/transform and ops/action compose
// and evaluate Flows via a three-phase fold/combine protocol (Collector per
// partition, projection per partition, associative combiner across
// partitions). The worker package consumes task descriptors from a
// distributed queue and executes them with bounded concurrency and
// lease-based fault handling.
package flo
