package main

import (
	"testing"

	"github.com/coreman2200/funtimes-lumiwave/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectMode(t *testing.T) {
	none := map[protocol.Mode]bool{}
	m, err := selectMode("", map[protocol.Mode]bool{protocol.OnlyIntensity: true, protocol.OnlyColor: false})
	require.NoError(t, err)
	assert.Equal(t, protocol.OnlyIntensity, m)

	_, err = selectMode("", none)
	assert.Error(t, err)

	_, err = selectMode("only-color", map[protocol.Mode]bool{protocol.OnlyIntensity: true, protocol.OnlyColor: true})
	assert.Error(t, err)

	m, err = selectMode("only-color", none)
	require.NoError(t, err)
	assert.Equal(t, protocol.OnlyColor, m)

	_, err = selectMode("loud", none)
	assert.ErrorIs(t, err, protocol.ErrUnknownMode)
}
