package scrape

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestToPNGConvertsJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(color.RGBA{200, 30, 30, 255}), nil))

	out, err := ToPNG(buf.Bytes())
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestToPNGKeepsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(color.RGBA{0, 0, 200, 255})))

	out, err := ToPNG(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out)
}

func TestToPNGRejectsSVG(t *testing.T) {
	_, err := ToPNG([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	assert.Error(t, err)
}

func TestFetchLogo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(color.RGBA{0, 120, 0, 255})))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	s := NewBBBScraper(newFetcher())
	out, err := s.FetchLogo(context.Background(), srv.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out)

	_, err = s.FetchLogo(context.Background(), "")
	assert.Error(t, err)
}
