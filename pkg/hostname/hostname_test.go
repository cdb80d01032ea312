package hostname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_PassesThroughValidHostname(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "host01.example.com", string(Sanitize("host01.example.com")))
}

func TestSanitize_ReplacesInvalidCharacters(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "host_name_with_spaces", string(Sanitize("host name/with spaces")))
}

func TestSanitize_EmptyStaysEmpty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", string(Sanitize("")))
}
