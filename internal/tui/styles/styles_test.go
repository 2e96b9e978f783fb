package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("Abyssinian", 0))
	assert.Equal(t, "Abyssinian", Truncate("Abyssinian", 10))
	assert.Equal(t, "Abyss...", Truncate("Abyssinian", 8))
	assert.Equal(t, "Ab", Truncate("Abyssinian", 2))
	assert.Equal(t, "Bengal", Truncate("Bengal", 40))
}
