// Package dsv provides a Parser for delimiter-separated-values data.
package dsv

import (
	"encoding/csv"
	"io"

	"github.com/go-flo/flo"
)

// ParserConf configures a DSV Parser
type ParserConf struct {
	Delimiter   rune // The field delimiter. Defaults to ','.
	Comment     rune // Lines beginning with the comment character are ignored. Cannot be equal to the Delimiter. Defaults to no comment character.
	HeaderLines int  // The number of records to ignore from the beginning of each stream. Defaults to 0.
}

// Parser produces elements from DSV data
type Parser[T any] struct {
	conf   *ParserConf
	decode func(record []string) (T, error)
}

// CreateParser returns a new DSV Parser. decode converts each record into
// an element.
func CreateParser[T any](conf *ParserConf, decode func(record []string) (T, error)) *Parser[T] {
	if conf == nil {
		conf = &ParserConf{}
	}
	if conf.Delimiter == 0 {
		conf.Delimiter = ','
	}
	return &Parser[T]{conf: conf, decode: decode}
}

// Parse parses DSV data, feeding one element per record into the sink
func (p *Parser[T]) Parse(r io.Reader, sink flo.Sink[T]) error {
	reader := csv.NewReader(r)
	reader.Comma = p.conf.Delimiter
	reader.Comment = p.conf.Comment
	reader.FieldsPerRecord = -1
	for i := 0; i < p.conf.HeaderLines; i++ {
		if _, err := reader.Read(); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		item, err := p.decode(record)
		if err != nil {
			return err
		}
		if err := sink.Consume(item); err != nil {
			return err
		}
	}
}
