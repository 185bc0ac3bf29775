//go:build !vicon

package datastream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithoutSDK(t *testing.T) {
	assert.False(t, Available)
	c, err := New(nil)
	assert.Nil(t, c)
	assert.Equal(t, ErrUnavailable, err)
}
