package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#1a2B3c")
	require.NoError(t, err)
	assert.Equal(t, RGB{0x1a, 0x2b, 0x3c}, c)

	c, err = ParseHex("fff")
	require.NoError(t, err)
	assert.Equal(t, RGB{255, 255, 255}, c)
	assert.Equal(t, "#ffffff", c.Hex())

	_, err = ParseHex("#12345")
	assert.Error(t, err)
	_, err = ParseHex("#gggggg")
	assert.Error(t, err)
}

func TestColorPalette_Validate(t *testing.T) {
	ok := ColorPalette{Accent: "#c0392b", Banner: "#2c3e50", FaintColor: "#ecf0f1", SecondAccent: "#f39c12"}
	assert.NoError(t, ok.Validate())

	near := ok
	near.SecondAccent = "#c1392c"
	assert.Error(t, near.Validate())

	bad := ok
	bad.Banner = "navy"
	assert.Error(t, bad.Validate())
}
