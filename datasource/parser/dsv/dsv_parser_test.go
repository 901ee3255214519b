package dsv

import (
	"strconv"
	"strings"
	"testing"

	"github.com/go-flo/flo"
	"github.com/stretchr/testify/require"
)

func TestDSVParser(t *testing.T) {
	input := "alice,30\nbob,25\n"
	p := CreateParser(nil, func(record []string) (int, error) {
		return strconv.Atoi(record[1])
	})
	var ages []int
	err := p.Parse(strings.NewReader(input), flo.SinkFunc[int](func(item int) error {
		ages = append(ages, item)
		return nil
	}))
	require.Nil(t, err)
	require.Equal(t, []int{30, 25}, ages)
}

func TestDSVParserCustomDelimiterAndHeader(t *testing.T) {
	input := "name\tage\n# ignored\nalice\t30\n"
	p := CreateParser(&ParserConf{Delimiter: '\t', Comment: '#', HeaderLines: 1}, func(record []string) (string, error) {
		return record[0], nil
	})
	var names []string
	err := p.Parse(strings.NewReader(input), flo.SinkFunc[string](func(item string) error {
		names = append(names, item)
		return nil
	}))
	require.Nil(t, err)
	require.Equal(t, []string{"alice"}, names)
}

func TestDSVParserDecodeFailure(t *testing.T) {
	p := CreateParser(nil, func(record []string) (int, error) {
		return strconv.Atoi(record[0])
	})
	err := p.Parse(strings.NewReader("not-a-number\n"), flo.SinkFunc[int](func(item int) error {
		return nil
	}))
	require.NotNil(t, err)
}
