// Package report models bug-report queries and pulls embedded code fragments
// out of report text.
package report

import (
	"regexp"
	"strings"
)

// Fragment is one code block quoted in a report. Language is the fence tag
// as written (possibly empty); it is carried along but does not select a
// grammar.
type Fragment struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Query is a bug report reduced to what retrieval consumes: the free text
// and the quoted code fragments. Source names where the report came from.
type Query struct {
	Source    string     `json:"source,omitempty"`
	Text      string     `json:"text"`
	Fragments []Fragment `json:"fragments"`
}

// HasCode reports whether the query carries at least one non-blank fragment.
func (q Query) HasCode() bool {
	for _, f := range q.Fragments {
		if strings.TrimSpace(f.Code) != "" {
			return true
		}
	}
	return false
}

// fencePattern matches a line starting with a run of backticks that opens a
// line-broken block, an optional language tag, the block body, and a line
// starting with backticks that closes it.
var fencePattern = regexp.MustCompile("(?ms)^[ \\t]*(`+)([A-Za-z0-9_+#.-]*)[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*`+")

// Parse builds a Query from report text, extracting every fenced code block.
func Parse(source, body string) Query {
	return Query{Source: source, Text: body, Fragments: ExtractFragments(body)}
}

// ExtractFragments returns the fenced code blocks of body in order of
// appearance. Blocks may be fenced with one, two or three backticks; the
// opening fence must start a line and be followed by a line break.
func ExtractFragments(body string) []Fragment {
	var fragments []Fragment
	for _, m := range fencePattern.FindAllStringSubmatch(body, -1) {
		code := m[3]
		if strings.TrimSpace(code) == "" {
			continue
		}
		fragments = append(fragments, Fragment{
			Language: strings.ToLower(m[2]),
			Code:     code + "\n",
		})
	}
	return fragments
}
