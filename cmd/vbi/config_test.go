package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceConfigValue(t *testing.T) {
	assert.Equal(t, 4, coerceConfigValue("4"))
	assert.Equal(t, -1, coerceConfigValue("-1"))
	assert.Equal(t, true, coerceConfigValue("yes"))
	assert.Equal(t, true, coerceConfigValue("true"))
	assert.Equal(t, false, coerceConfigValue("off"))
	assert.Equal(t, "calls.vbi", coerceConfigValue("calls.vbi"))
	assert.Equal(t, "1.5", coerceConfigValue("1.5"), "non-integer numerics stay strings")
}
