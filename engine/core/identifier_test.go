package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortIdentifier(t *testing.T) {
	a, b := ShortIdentifier(), ShortIdentifier()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}
