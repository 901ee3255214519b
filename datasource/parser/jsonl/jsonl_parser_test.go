package jsonl

import (
	"strings"
	"testing"

	"github.com/go-flo/flo"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestJSONLParser(t *testing.T) {
	input := strings.Join([]string{
		`{"name": "alice", "age": 30}`,
		`{"name": "bob", "age": 25}`,
	}, "\n")
	p := CreateParser(nil, func(line gjson.Result) (string, error) {
		return line.Get("name").String(), nil
	})
	var names []string
	err := p.Parse(strings.NewReader(input), flo.SinkFunc[string](func(item string) error {
		names = append(names, item)
		return nil
	}))
	require.Nil(t, err)
	require.Equal(t, []string{"alice", "bob"}, names)
}

func TestJSONLParserSkipsHeadersAndComments(t *testing.T) {
	input := strings.Join([]string{
		`this line is a header`,
		`# a comment`,
		`{"n": 1}`,
		``,
		`{"n": 2}`,
	}, "\n")
	p := CreateParser(&ParserConf{HeaderLines: 1, Comment: '#'}, func(line gjson.Result) (int64, error) {
		return line.Get("n").Int(), nil
	})
	var values []int64
	err := p.Parse(strings.NewReader(input), flo.SinkFunc[int64](func(item int64) error {
		values = append(values, item)
		return nil
	}))
	require.Nil(t, err)
	require.Equal(t, []int64{1, 2}, values)
}

func TestJSONLParserRejectsMalformedLines(t *testing.T) {
	p := CreateParser(nil, func(line gjson.Result) (int64, error) {
		return line.Get("n").Int(), nil
	})
	err := p.Parse(strings.NewReader(`{"n": 1`), flo.SinkFunc[int64](func(item int64) error {
		return nil
	}))
	require.NotNil(t, err)
}
