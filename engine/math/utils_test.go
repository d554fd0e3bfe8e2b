package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(5), Clamp(uint32(1), 5, 10))
	assert.Equal(t, uint32(10), Clamp(uint32(4000), 5, 10))
	assert.Equal(t, uint32(7), Clamp(uint32(7), 5, 10))
	assert.Equal(t, float32(-1), Clamp(float32(-3.5), -1, 1))
}
