// Package persist materializes a Flow into a durable, reusable partitioned
// representation. Persisting evaluates the flow once, writing each
// partition's output to the chosen storage tier, and returns a
// Flow-compatible handle which re-reads the materialized partitions on
// every subsequent use — avoiding recomputation at the cost of one full
// pass plus storage capacity.
//
// Elements are framed with encoding/gob, so the element type must be
// gob-encodable.
package persist

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/docker/docker/pkg/locker"
	"github.com/go-flo/flo"
	uuid "github.com/gofrs/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
)

// StorageLevel selects the storage tier partitions are materialized to.
type StorageLevel int

const (
	// Memory retains decoded partitions in process memory
	Memory StorageLevel = iota
	// MemoryCompressed retains zstd-compressed partitions in process memory
	MemoryCompressed
	// Disk writes lz4-compressed partitions to files
	Disk
)

// Conf configures persistence
type Conf struct {
	Dir string // location for Disk-level partition files. Defaults to the OS temp dir.
}

// PersistedFlow is a durable, partitioned materialization of a Flow. It
// implements flo.Flow and may be read any number of times until Drop is
// called.
type PersistedFlow[T any] struct {
	level   StorageLevel
	parts   []*persistedPartition[T]
	plocks  *locker.Locker
	dropped bool
}

type persistedPartition[T any] struct {
	id         string
	items      []T    // Memory
	compressed []byte // MemoryCompressed
	path       string // Disk
	numItems   int
}

// Cache materializes fl at the Memory storage level.
func Cache[T any](ctx context.Context, fl flo.Flow[T]) (*PersistedFlow[T], error) {
	return Persist(ctx, fl, Memory, nil)
}

// Persist evaluates fl once, materializing each partition's output at the
// given storage level.
func Persist[T any](ctx context.Context, fl flo.Flow[T], level StorageLevel, conf *Conf) (*PersistedFlow[T], error) {
	if conf == nil {
		conf = &Conf{}
	}
	if len(conf.Dir) == 0 {
		conf.Dir = os.TempDir()
	}
	parts, err := flo.WithEvaluators(ctx, fl,
		func(pctx *flo.PartitionContext) (flo.Collector[T, []T], error) {
			return &bufferCollector[T]{}, nil
		},
		// writing the partition out is local side-effecting work, so it
		// belongs in the projection
		func(ctx context.Context, items []T) ([]*persistedPartition[T], error) {
			part, err := writePartition(items, level, conf.Dir)
			if err != nil {
				return nil, err
			}
			return []*persistedPartition[T]{part}, nil
		},
		func(parts [][]*persistedPartition[T]) ([]*persistedPartition[T], error) {
			var all []*persistedPartition[T]
			for _, p := range parts {
				all = append(all, p...)
			}
			return all, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &PersistedFlow[T]{level: level, parts: parts, plocks: locker.New()}, nil
}

// bufferCollector accumulates a partition's elements in order.
type bufferCollector[T any] struct {
	items []T
}

// Sink returns an ingestion endpoint buffering elements
func (c *bufferCollector[T]) Sink() (flo.Sink[T], error) {
	return flo.SinkFunc[T](func(item T) error {
		c.items = append(c.items, item)
		return nil
	}), nil
}

// Result returns the buffered elements
func (c *bufferCollector[T]) Result(ctx context.Context) ([]T, error) {
	return c.items, nil
}

func writePartition[T any](items []T, level StorageLevel, dir string) (*persistedPartition[T], error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate partition ID: %v", err)
	}
	part := &persistedPartition[T]{id: id.String(), numItems: len(items)}
	switch level {
	case Memory:
		part.items = items
	case MemoryCompressed:
		encoded, err := gobEncode(items)
		if err != nil {
			return nil, err
		}
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}
		part.compressed = enc.EncodeAll(encoded, nil)
		enc.Close()
	case Disk:
		filename := path.Join(dir, part.id)
		if err := writeDiskPartition(filename, items); err != nil {
			return nil, err
		}
		part.path = filename
	default:
		return nil, fmt.Errorf("%d is an unknown StorageLevel", level)
	}
	return part, nil
}

func writeDiskPartition[T any](filename string, items []T) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	compressor := lz4.NewWriter(f)
	if err := gob.NewEncoder(compressor).Encode(items); err != nil {
		f.Close()
		return err
	}
	if err := compressor.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func gobEncode[T any](items []T) ([]byte, error) {
	var buff bytes.Buffer
	if err := gob.NewEncoder(&buff).Encode(items); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// DegreeOfParallelism defers to the runtime default
func (f *PersistedFlow[T]) DegreeOfParallelism() int {
	return 0
}

// NumPartitions returns the number of materialized partitions.
func (f *PersistedFlow[T]) NumPartitions() int {
	return len(f.parts)
}

// Analyze returns one loader per materialized partition
func (f *PersistedFlow[T]) Analyze(ctx context.Context) ([]flo.PartitionLoader[T], error) {
	if f.dropped {
		return nil, fmt.Errorf("persisted flow has been dropped")
	}
	loaders := make([]flo.PartitionLoader[T], len(f.parts))
	for i, part := range f.parts {
		loaders[i] = &partitionLoader[T]{flow: f, part: part}
	}
	return loaders, nil
}

// Drop releases all materialized partitions, removing any backing files.
// The flow cannot be read afterwards.
func (f *PersistedFlow[T]) Drop() error {
	f.dropped = true
	for _, part := range f.parts {
		f.plocks.Lock(part.id)
		part.items = nil
		part.compressed = nil
		if len(part.path) > 0 {
			if err := os.Remove(part.path); err != nil {
				f.plocks.Unlock(part.id)
				return err
			}
			part.path = ""
		}
		f.plocks.Unlock(part.id)
	}
	return nil
}

// partitionLoader re-reads one materialized partition
type partitionLoader[T any] struct {
	flow *PersistedFlow[T]
	part *persistedPartition[T]
}

// ToString returns a string representation of this loader
func (l *partitionLoader[T]) ToString() string {
	return fmt.Sprintf("Persisted loader partition %s (%d items)", l.part.id, l.part.numItems)
}

// Load decodes the materialized partition and feeds it into the sink
func (l *partitionLoader[T]) Load(pctx *flo.PartitionContext, sink flo.Sink[T]) error {
	items, err := l.read()
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := sink.Consume(item); err != nil {
			return err
		}
	}
	return nil
}

// read fetches the partition's elements from its storage tier, holding the
// partition lock so a concurrent Drop cannot race the read
func (l *partitionLoader[T]) read() ([]T, error) {
	l.flow.plocks.Lock(l.part.id)
	defer l.flow.plocks.Unlock(l.part.id)
	if l.flow.dropped {
		return nil, fmt.Errorf("persisted flow has been dropped")
	}
	switch l.flow.level {
	case Memory:
		return l.part.items, nil
	case MemoryCompressed:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		encoded, err := dec.DecodeAll(l.part.compressed, nil)
		if err != nil {
			return nil, err
		}
		return gobDecode[T](bytes.NewReader(encoded))
	case Disk:
		f, err := os.Open(l.part.path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return gobDecode[T](lz4.NewReader(f))
	default:
		return nil, fmt.Errorf("%d is an unknown StorageLevel", l.flow.level)
	}
}

func gobDecode[T any](r io.Reader) ([]T, error) {
	var items []T
	if err := gob.NewDecoder(r).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}
