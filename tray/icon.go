package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// iconData is a generated 16x16 PNG: a filled speech-bubble square. Kept as
// code rather than an asset file so the binary stays self-contained.
var iconData = renderIcon()

func renderIcon() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	fill := color.RGBA{R: 0x2d, G: 0x6c, B: 0xdf, A: 0xff}
	for y := 2; y < 12; y++ {
		for x := 1; x < 15; x++ {
			img.Set(x, y, fill)
		}
	}
	// Bubble tail
	for y := 12; y < 15; y++ {
		for x := 3; x < 3+(15-y); x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
