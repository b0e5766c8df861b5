package scrape

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/rotisserie/eris"
	_ "golang.org/x/image/webp"
)

// FetchLogo downloads the logo and re-encodes it as PNG so the stored
// logo.png is always a PNG regardless of the source format.
func (s *BBBScraper) FetchLogo(ctx context.Context, logoURL string) ([]byte, error) {
	if logoURL == "" {
		return nil, eris.New("scrape: profile has no logo")
	}
	data, err := s.fetch.Fetch(ctx, logoURL)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch logo")
	}
	return ToPNG(data)
}

// ToPNG decodes a png, jpeg, gif, or webp image and encodes it as PNG.
func ToPNG(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: decode logo")
	}
	if format == "png" {
		return data, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, eris.Wrap(err, "scrape: encode logo")
	}
	return buf.Bytes(), nil
}
