package papersources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  plain\n\ttext  ", "plain text"},
		{"<jats:p>Gene <i>in vivo</i> editing</jats:p>", "Gene in vivo editing"},
		{"Cats &amp; dogs", "Cats & dogs"},
		{"x<sup>2</sup> growth", "x2 growth"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), "input %q", tt.in)
	}
}

func TestCleanAuthors(t *testing.T) {
	assert.Equal(t, []string{"A. Author", "B Writer"}, CleanAuthors([]string{" A.  Author", "", "<b>B</b> Writer"}))
	assert.Empty(t, CleanAuthors(nil))
}
