package protocoladapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtocolScheme(t *testing.T) {
	scheme, ok := protocolScheme("protocol://smtp/send")
	require.True(t, ok)
	require.Equal(t, "smtp", scheme)

	scheme, ok = protocolScheme("protocol://imap")
	require.True(t, ok)
	require.Equal(t, "imap", scheme)

	_, ok = protocolScheme("https://example.com")
	require.False(t, ok)
}

func TestBuildMIMEMessageSend(t *testing.T) {
	msg, err := buildMIMEMessage("send", map[string]any{
		"to":      []any{"a@example.com", "b@example.com"},
		"subject": "hello",
		"body":    "world",
	})
	require.NoError(t, err)
	s := string(msg)
	require.Contains(t, s, "To: a@example.com, b@example.com")
	require.Contains(t, s, "Subject: hello")
	require.True(t, strings.HasSuffix(s, "world"))
}

func TestBuildMIMEMessageReplyCopiesThreadHeaders(t *testing.T) {
	msg, err := buildMIMEMessage("reply", map[string]any{
		"to":      []any{"a@example.com"},
		"subject": "Re: hello",
		"body":    "reply body",
		"headers": map[string]any{
			"In-Reply-To": "<msg-1@example.com>",
			"References":  "<msg-0@example.com> <msg-1@example.com>",
		},
	})
	require.NoError(t, err)
	s := string(msg)
	require.Contains(t, s, "In-Reply-To: <msg-1@example.com>")
	require.Contains(t, s, "References: <msg-0@example.com> <msg-1@example.com>")
}

func TestParseSearchIDs(t *testing.T) {
	ids := parseSearchIDs([]string{"* SEARCH 1 2 3 42"})
	require.Equal(t, []int{1, 2, 3, 42}, ids)
}

func TestParseSearchIDsEmpty(t *testing.T) {
	ids := parseSearchIDs([]string{"* SEARCH"})
	require.Empty(t, ids)
}

func TestQuoteIMAPEscapesSpecialChars(t *testing.T) {
	require.Equal(t, `"hello"`, quoteIMAP("hello"))
	require.Equal(t, `"back\\slash"`, quoteIMAP(`back\slash`))
	require.Equal(t, `"say \"hi\""`, quoteIMAP(`say "hi"`))
}

func TestStringSliceHandlesVariants(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, stringSlice([]any{"a", "b"}))
	require.Equal(t, []string{"a"}, stringSlice("a"))
	require.Nil(t, stringSlice(""))
	require.Nil(t, stringSlice(nil))
}
