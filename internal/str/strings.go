package str

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var markdownEscapes = []string{"_", "*", "`", "["}

func MarkdownEscape(s string) string {
	for _, esc := range markdownEscapes {
		if strings.Contains(s, esc) {
			s = strings.Replace(s, esc, fmt.Sprintf("\\%s", esc), -1)
		}
	}
	return s
}

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz")

// RandStringRunes returns n random lower case letters.
func RandStringRunes(n int) string {
	b := make([]rune, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(letterRunes))))
		if err != nil {
			panic(err)
		}
		b[i] = letterRunes[idx.Int64()]
	}
	return string(b)
}

// Ellipsis shortens long payment strings like invoices and addresses for display.
func Ellipsis(s string, keep int) string {
	if len(s) <= 2*keep+3 {
		return s
	}
	return s[:keep] + "..." + s[len(s)-keep:]
}

// NormalizeWords lower cases s and collapses all whitespace to single spaces.
func NormalizeWords(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
