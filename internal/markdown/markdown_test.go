//go:build unit

package markdown

import (
	"slices"
	"testing"
)

func TestConverter_Convert(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []string
	}{
		{"headings", "# Big\n## Medium\n### Small", []string{"[*** Big]", "", "[** Medium]", "", "[* Small]"}},
		{"inline", "Some **bold**, _italic_, ~~gone~~ and `code`.", []string{"Some [* bold], [/ italic], [- gone] and `code`."}},
		{"links", "[Go](https://go.dev) and ![img](https://example.com/a.png)", []string{"[Go https://go.dev] and [https://example.com/a.png]"}},
		{"soft breaks", "one\ntwo", []string{"one", "two"}},
		{"bullets", "- a\n- b\n  - c", []string{" a", " b", "  c"}},
		{"ordered", "1. first\n2. second", []string{" 1. first", " 2. second"}},
		{"fenced code", "```go\nfunc main() {}\n```", []string{"code:go", " func main() {}"}},
		{"quote", "> quoted\n> text", []string{"> quoted", "> text"}},
		{"rule", "a\n\n---\n\nb", []string{"a", "", hrIcon, "", "b"}},
		{"raw html", "<div><b>bold</b> &amp; text</div>", []string{"bold & text"}},
		{"inline html", "a <span>b</span> c", []string{"a b c"}},
		{"table", "| k | v |\n|---|---|\n| a | 1 |", []string{"table:table", " k\tv", " a\t1"}},
	}

	c := NewConverter()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Convert([]byte(tc.src))
			if !slices.Equal(got, tc.want) {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestConverter_Page(t *testing.T) {
	got := NewConverter().Page("Imported", []byte("hello\n"))
	if !slices.Equal(got, []string{"Imported", "hello"}) {
		t.Errorf("unexpected page %q", got)
	}
}
