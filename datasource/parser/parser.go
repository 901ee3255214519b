// Package parser defines the contract for deserializing byte streams into
// typed elements. Concrete parsers live in subpackages (jsonl, dsv).
package parser

import (
	"io"

	"github.com/go-flo/flo"
)

// A Parser deserializes a stream of bytes into typed elements, feeding
// each one into a Sink. Parse must return the error produced by a failing
// Consume call unaltered, so that partition-level control flow (stop
// sentinels, cancellation) passes through.
type Parser[T any] interface {
	Parse(r io.Reader, sink flo.Sink[T]) error
}
