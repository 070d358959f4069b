package suitejson

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// optionLexer tokenizes reporter option strings such as
// `stats=off,space=4,title="a, b"`.
var optionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Word", Pattern: `[^,=\s"]+`},
	{Name: "Punct", Pattern: `[,=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type optionList struct {
	Pairs []*optionPair `parser:"( @@ ( ',' @@ )* )?"`
}

type optionPair struct {
	Key   string  `parser:"@Word"`
	Value *string `parser:"( '=' @( String | Word )? )?"`
}

var optionParser = participle.MustBuild[optionList](
	participle.Lexer(optionLexer),
	participle.Unquote("String"),
	participle.Elide("Whitespace"),
)

// ParseOptionString parses a comma-separated list of key=value pairs into an
// options bag. A key without a value is set to "true"; later keys win.
func ParseOptionString(s string) (map[string]any, error) {
	list, err := optionParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("suitejson: reporter options %q: %w", s, err)
	}

	bag := make(map[string]any, len(list.Pairs))

	for _, p := range list.Pairs {
		if p.Value == nil {
			bag[p.Key] = "true"
			continue
		}

		bag[p.Key] = *p.Value
	}

	return bag, nil
}

// MergeOptionStrings parses every string with ParseOptionString and merges
// the results into bag, which may be nil.
func MergeOptionStrings(bag map[string]any, specs ...string) (map[string]any, error) {
	if bag == nil {
		bag = make(map[string]any)
	}

	for _, s := range specs {
		parsed, err := ParseOptionString(s)
		if err != nil {
			return nil, err
		}

		for k, v := range parsed {
			bag[k] = v
		}
	}

	return bag, nil
}
