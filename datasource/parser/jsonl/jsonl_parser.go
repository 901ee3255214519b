// Package jsonl provides a Parser for JSON-lines data, decoding each line
// lazily with gjson.
package jsonl

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-flo/flo"
	"github.com/tidwall/gjson"
)

// ParserConf configures a JSONL Parser, suitable for JSON lines data
type ParserConf struct {
	HeaderLines   int  // The number of lines to ignore from the beginning of each stream. Defaults to 0.
	Comment       rune // Lines beginning with the comment character are ignored. Defaults to no comment character.
	MaxBufferSize int  // Maximum size in bytes of the buffer used to read lines
}

// Parser produces elements from JSONL data. Each line is parsed lazily
// with gjson and handed to the decode function.
type Parser[T any] struct {
	conf   *ParserConf
	decode func(line gjson.Result) (T, error)
}

// CreateParser returns a new JSONL Parser. decode converts each parsed
// line into an element; values within the JSON it does not read are never
// materialized.
func CreateParser[T any](conf *ParserConf, decode func(line gjson.Result) (T, error)) *Parser[T] {
	if conf == nil {
		conf = &ParserConf{}
	}
	if conf.MaxBufferSize == 0 {
		conf.MaxBufferSize = bufio.MaxScanTokenSize
	}
	return &Parser[T]{conf: conf, decode: decode}
}

// Parse parses JSONL data, feeding one element per line into the sink
func (p *Parser[T]) Parse(r io.Reader, sink flo.Sink[T]) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), p.conf.MaxBufferSize)
	// ignore header lines, if configured to do so
	for i := 0; i < p.conf.HeaderLines; i++ {
		scanner.Scan()
		if err := scanner.Err(); err != nil {
			return err
		}
	}
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if p.conf.Comment != 0 && rune(line[0]) == p.conf.Comment {
			continue
		}
		if !gjson.ValidBytes(line) {
			return fmt.Errorf("line is not valid JSON: %s", string(line))
		}
		item, err := p.decode(gjson.ParseBytes(line))
		if err != nil {
			return err
		}
		if err := sink.Consume(item); err != nil {
			return err
		}
	}
	return scanner.Err()
}
