package chatui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncateKeepsShortStrings(t *testing.T) {
	require.Equal(t, "hello", truncate("hello", 10))
	require.Equal(t, "", truncate("hello", 0))
}

func TestTruncateMultibyteStaysValidUTF8(t *testing.T) {
	out := truncate("日本語のメッセージです", 8)
	require.True(t, utf8.ValidString(out), "cut must not land mid-rune")
	require.True(t, strings.HasSuffix(out, "..."))

	out = truncate("éèêëéèêëéèêë", 6)
	require.True(t, utf8.ValidString(out))
}

func TestTruncateTinyBudget(t *testing.T) {
	out := truncate("日本語テキスト", 2)
	require.True(t, utf8.ValidString(out))
	require.Len(t, []rune(out), 2)
}
