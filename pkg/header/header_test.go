package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHostHeader(t *testing.T) {
	t.Parallel()

	assert.True(t, IsHostHeader([]byte("<<<mem>>>")))
	assert.True(t, IsHostHeader([]byte("  <<<mem:sep(124)>>>  ")))
	assert.False(t, IsHostHeader([]byte("<<<>>>")))
	assert.False(t, IsHostHeader([]byte("<<<<myhost>>>>")))
	assert.False(t, IsHostHeader([]byte("<<<<>>>>")))
	assert.False(t, IsHostHeader([]byte("not a header")))
}

func TestIsHostFooter(t *testing.T) {
	t.Parallel()
	assert.True(t, IsHostFooter([]byte("<<<>>>")))
	assert.False(t, IsHostFooter([]byte("<<<mem>>>")))
}

func TestIsPiggybackHeaderAndFooter(t *testing.T) {
	t.Parallel()
	assert.True(t, IsPiggybackHeader([]byte("<<<<myhost>>>>")))
	assert.False(t, IsPiggybackHeader([]byte("<<<<>>>>")))
	assert.True(t, IsPiggybackFooter([]byte("<<<<>>>>")))
}

func TestParsePiggybackTarget(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "myhost", ParsePiggybackTarget([]byte("<<<<myhost>>>>")))
	assert.Equal(t, "", ParsePiggybackTarget([]byte("<<<<>>>>")))
}

func TestParse_NameOnly(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<mem>>>"))
	require.NoError(t, err)
	assert.Equal(t, "mem", string(h.Name))
	assert.Empty(t, h.Options)
}

func TestParse_Options(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local:sep(124):cached(1000,60)>>>"))
	require.NoError(t, err)
	assert.Equal(t, "local", string(h.Name))
	assert.Equal(t, "124", h.Options["sep"])
	assert.Equal(t, "1000,60", h.Options["cached"])
}

func TestParse_TokenWithoutParenIsIgnored(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local:nostrip>>>"))
	require.NoError(t, err)
	_, ok := h.Options["nostrip"]
	assert.False(t, ok, "nostrip has no parens so it is not recorded as an option")
}

func TestParse_UnterminatedOptionIsInvalid(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("<<<local:sep(124>>>"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestParse_EmptyNameIsInvalid(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("<<<:sep(124)>>>"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestHeader_Cached(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local:cached(1000,60)>>>"))
	require.NoError(t, err)

	capturedAt, interval, ok, err := h.Cached()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1000, capturedAt)
	assert.Equal(t, 60, interval)
}

func TestHeader_Cached_ExtraFieldsTolerated(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local:cached(1000,60,extra)>>>"))
	require.NoError(t, err)

	_, _, ok, err := h.Cached()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHeader_Cached_Malformed(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local:cached(notanumber,60)>>>"))
	require.NoError(t, err)

	_, _, _, err = h.Cached()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestHeader_Persist(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local:persist(1234)>>>"))
	require.NoError(t, err)

	validUntil, ok, err := h.Persist()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1234, validUntil)
}

func TestHeader_Encoding_DefaultsToUTF8(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local>>>"))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", h.Encoding())

	h2, err := Parse([]byte("<<<local:encoding(latin1)>>>"))
	require.NoError(t, err)
	assert.Equal(t, "latin1", h2.Encoding())
}

func TestHeader_Separator(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local:sep(124)>>>"))
	require.NoError(t, err)

	sep, ok, err := h.Separator()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, byte(124), sep)
}

func TestHeader_NoStrip(t *testing.T) {
	t.Parallel()

	h, err := Parse([]byte("<<<local:nostrip()>>>"))
	require.NoError(t, err)
	assert.True(t, h.NoStrip())

	h2, err := Parse([]byte("<<<local>>>"))
	require.NoError(t, err)
	assert.False(t, h2.NoStrip())
}

func TestRewrite(t *testing.T) {
	t.Parallel()

	got := Rewrite([]byte("<<<mem>>>"), 1000, 90)
	assert.Equal(t, "<<<mem:cached(1000,90)>>>", string(got))
}

func TestRewrite_AlreadyCachedLeftAlone(t *testing.T) {
	t.Parallel()

	orig := []byte("<<<mem:cached(500,30)>>>")
	assert.Equal(t, orig, Rewrite(orig, 1000, 90))
}

func TestRewrite_AlreadyPersistLeftAlone(t *testing.T) {
	t.Parallel()

	orig := []byte("<<<mem:persist(2000)>>>")
	assert.Equal(t, orig, Rewrite(orig, 1000, 90))
}
