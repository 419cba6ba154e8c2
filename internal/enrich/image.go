package enrich

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// prepareImage validates and normalizes raw image bytes into the base64
// PNG data URL the vision endpoint accepts. Images under minDim on either
// side are rejected as icons; images whose longer side exceeds maxDim are
// downscaled to keep the request payload reasonable.
func prepareImage(data []byte, minDim, maxDim int) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < minDim || h < minDim {
		return "", fmt.Errorf("image %dx%d under %dpx minimum", w, h, minDim)
	}

	longer := w
	if h > longer {
		longer = h
	}
	if longer > maxDim {
		scale := float64(maxDim) / float64(longer)
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return "", fmt.Errorf("encoding png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
