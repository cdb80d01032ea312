package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode_UTF8(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello", Decode([]byte("hello"), "utf-8"))
	assert.Equal(t, "hello", Decode([]byte("hello"), ""))
}

func TestDecode_InvalidUTF8FallsBackToLatin1(t *testing.T) {
	t.Parallel()
	raw := []byte{0xe9} // invalid as UTF-8, 'é' in latin-1
	got := Decode(raw, "utf-8")
	assert.Equal(t, "é", got)
}

func TestDecode_UnknownCharsetFallsBackToLatin1(t *testing.T) {
	t.Parallel()
	raw := []byte{0xe9}
	got := Decode(raw, "not-a-real-charset")
	assert.Equal(t, "é", got)
}

func TestDecode_NamedCharset(t *testing.T) {
	t.Parallel()
	raw := []byte{0xe9} // 'é' in ISO-8859-1
	got := Decode(raw, "iso-8859-1")
	assert.Equal(t, "é", got)
}

func TestSplit_WithSeparator(t *testing.T) {
	t.Parallel()
	row := Split("a|b||c", '|', true)
	assert.Equal(t, Row{"a", "b", "", "c"}, row)
}

func TestSplit_Whitespace(t *testing.T) {
	t.Parallel()
	row := Split("  a   b  c ", 0, false)
	assert.Equal(t, Row{"a", "b", "c"}, row)
}

func TestStrip(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []byte("hello"), Strip([]byte("  hello\r\n")))
	assert.Equal(t, []byte(""), Strip([]byte("   \t\r\n")))
}
