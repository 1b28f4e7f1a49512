package content

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestGenerateThumbnail(t *testing.T) {
	thumb, err := GenerateThumbnail(pngBytes(t, 640, 480))
	if err != nil {
		t.Fatalf("GenerateThumbnail() error = %v", err)
	}
	if thumb == nil {
		t.Fatal("GenerateThumbnail() = nil, want JPEG bytes")
	}

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("thumbnail is not valid JPEG: %v", err)
	}
	if dx, dy := img.Bounds().Dx(), img.Bounds().Dy(); dx != 128 || dy != 96 {
		t.Errorf("thumbnail bounds = %dx%d, want 128x96", dx, dy)
	}
}

// images already inside the box are not upscaled.
func TestGenerateThumbnail_smallImage(t *testing.T) {
	thumb, err := GenerateThumbnail(pngBytes(t, 64, 48))
	if err != nil {
		t.Fatalf("GenerateThumbnail() error = %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("thumbnail is not valid JPEG: %v", err)
	}
	if dx, dy := img.Bounds().Dx(), img.Bounds().Dy(); dx != 64 || dy != 48 {
		t.Errorf("thumbnail bounds = %dx%d, want 64x48", dx, dy)
	}
}

func TestGenerateThumbnail_notAnImage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "text", data: []byte("just some text")},
		{name: "truncated jpeg", data: []byte{0xff, 0xd8, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb, err := GenerateThumbnail(tt.data)
			if thumb != nil || err != nil {
				t.Errorf("GenerateThumbnail() = (%v, %v), want (nil, nil)", thumb, err)
			}
		})
	}
}
