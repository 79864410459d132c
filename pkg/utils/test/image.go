package testutils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// NewTestPNG returns encoded PNG bytes of the given size, filled with a
// solid color so tests have real decodable image data.
func NewTestPNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
