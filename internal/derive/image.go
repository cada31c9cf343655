package derive

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decode-only support for webp sources

	"kiln/internal/config"
)

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// targetSize bounds the image to the profile's dimensions while preserving
// aspect ratio. Images are never upscaled.
func targetSize(bounds image.Rectangle, profile config.Profile) (int, int) {
	width := bounds.Dx()
	height := bounds.Dy()
	scale := 1.0
	if profile.Width > 0 {
		if s := float64(profile.Width) / float64(width); s < scale {
			scale = s
		}
	}
	if profile.Height > 0 {
		if s := float64(profile.Height) / float64(height); s < scale {
			scale = s
		}
	}
	if scale >= 1.0 {
		return width, height
	}
	scaledW := int(float64(width) * scale)
	scaledH := int(float64(height) * scale)
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}
	return scaledW, scaledH
}

func resizeImage(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func encodeImage(w io.Writer, img image.Image, profile config.Profile) error {
	switch profile.Format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: profile.Quality})
	case "png":
		encoder := png.Encoder{CompressionLevel: png.BestCompression}
		return encoder.Encode(w, img)
	case "gif":
		return gif.Encode(w, img, nil)
	default:
		return fmt.Errorf("unsupported output format %q", profile.Format)
	}
}

// renderDerivative produces the encoded derivative bytes for a task. The
// pixel content depends only on the source bytes and profile parameters, so
// repeated runs produce identical output.
func renderDerivative(task Task, watermark config.Watermark, embed config.EmbedMetadata) ([]byte, int, int, error) {
	src, err := decodeImage(task.SourceAbs)
	if err != nil {
		return nil, 0, 0, err
	}
	width, height := targetSize(src.Bounds(), task.Profile)
	img := resizeImage(src, width, height)

	if watermark.Enabled && watermark.Text != "" && minDimension(img) >= maxInt(1, watermark.MinSize) {
		img = applyWatermark(img, watermark)
	}

	var buf bytes.Buffer
	if err := encodeImage(&buf, img, task.Profile); err != nil {
		return nil, 0, 0, err
	}

	data := buf.Bytes()
	if embed.Enabled {
		// Formats without a suitable metadata container keep their bytes as-is.
		data = embedMetadata(data, task.Profile.Format, embed)
	}
	return data, width, height, nil
}

func minDimension(img image.Image) int {
	bounds := img.Bounds()
	if bounds.Dx() < bounds.Dy() {
		return bounds.Dx()
	}
	return bounds.Dy()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
