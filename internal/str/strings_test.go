package str

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandStringRunes(t *testing.T) {
	s := RandStringRunes(6)
	assert.Len(t, s, 6)
	assert.Regexp(t, "^[a-z]{6}$", s)
}

func TestEllipsis(t *testing.T) {
	assert.Equal(t, "short", Ellipsis("short", 4))
	assert.Equal(t, "lnbc...wxyz", Ellipsis("lnbc1234567890abcdefwxyz", 4))
}

func TestNormalizeWords(t *testing.T) {
	assert.Equal(t, "abandon ability able", NormalizeWords("  Abandon\n ABILITY   able "))
}

func TestMarkdownEscape(t *testing.T) {
	assert.Equal(t, "\\_user\\_", MarkdownEscape("_user_"))
}
