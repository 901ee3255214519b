// Package file provides a Flow over files matching a glob, partitioned by
// a byte-size threshold: files are packed into partitions so that no
// partition exceeds the threshold, trading finer parallelism against
// per-partition overhead. Individual files are never split.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-flo/flo"
	"github.com/go-flo/flo/datasource/parser"
)

// DefaultTargetPartitionSize is the default maximum number of bytes
// assigned to a single partition.
const DefaultTargetPartitionSize = 256 * 1024 * 1024

// Conf configures a file-backed Flow
type Conf struct {
	TargetPartitionSize int64 // maximum bytes per partition. Defaults to 256 MiB.
}

// Flow is a set of files containing data which will be processed as a
// partitioned collection
type Flow[T any] struct {
	glob   string
	parser parser.Parser[T]
	conf   *Conf
}

// CreateFlow produces a Flow over all files matching glob, deserialized
// with p.
func CreateFlow[T any](glob string, p parser.Parser[T], conf *Conf) *Flow[T] {
	if conf == nil {
		conf = &Conf{}
	}
	if conf.TargetPartitionSize <= 0 {
		conf.TargetPartitionSize = DefaultTargetPartitionSize
	}
	return &Flow[T]{glob: glob, parser: p, conf: conf}
}

// DegreeOfParallelism defers to the runtime default
func (f *Flow[T]) DegreeOfParallelism() int {
	return 0
}

// Analyze enumerates matching files and packs them into partitions no
// larger than the configured size threshold
func (f *Flow[T]) Analyze(ctx context.Context) ([]flo.PartitionLoader[T], error) {
	matches, err := filepath.Glob(f.glob)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("glob %s produced 0 files", f.glob)
	}
	var (
		loaders   []flo.PartitionLoader[T]
		current   []string
		currentSz int64
	)
	flush := func() {
		if len(current) > 0 {
			loaders = append(loaders, &partitionLoader[T]{paths: current, parser: f.parser})
			current = nil
			currentSz = 0
		}
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if len(current) > 0 && currentSz+info.Size() > f.conf.TargetPartitionSize {
			flush()
		}
		current = append(current, path)
		currentSz += info.Size()
	}
	flush()
	return loaders, nil
}

// partitionLoader parses one partition's worth of files into a Sink
type partitionLoader[T any] struct {
	paths  []string
	parser parser.Parser[T]
}

// ToString returns a string representation of this loader
func (l *partitionLoader[T]) ToString() string {
	return fmt.Sprintf("File loader (%d files)", len(l.paths))
}

// Load opens and parses each of the partition's files in turn
func (l *partitionLoader[T]) Load(pctx *flo.PartitionContext, sink flo.Sink[T]) error {
	for _, path := range l.paths {
		if err := l.loadFile(path, sink); err != nil {
			return err
		}
	}
	return nil
}

func (l *partitionLoader[T]) loadFile(path string, sink flo.Sink[T]) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return l.parser.Parse(f, sink)
}
