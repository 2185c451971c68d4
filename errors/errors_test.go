package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesOriginal(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
}

func TestNewfFormats(t *testing.T) {
	err := Newf("batch %d of %d failed", 3, 7)
	require.NotNil(t, err)
	assert.Equal(t, "batch 3 of 7 failed", err.Error())
}

func TestVerboseFormatIncludesStack(t *testing.T) {
	err := New("with stack")
	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}
