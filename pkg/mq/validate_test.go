package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireNonEmpty(t *testing.T) {
	assert.NoError(t, RequireNonEmpty("name", "value"))
	assert.Error(t, RequireNonEmpty("name", ""))
	assert.Error(t, RequireNonEmpty("name", "   "))
}

func TestRequireOneOf(t *testing.T) {
	assert.NoError(t, RequireOneOf("acks", "all", "0", "1", "all"))
	assert.NoError(t, RequireOneOf("acks", "", "0", "1", "all"))

	err := RequireOneOf("acks", "2", "0", "1", "all")
	assert.EqualError(t, err, `acks must be one of [0, 1, all], got "2"`)
}
