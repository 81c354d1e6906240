package imagegen

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	_ "image/gif"
	_ "image/jpeg"
)

// saveImage writes image bytes under dir as <provider>_<timestamp>.png,
// re-encoding to PNG when the provider returned another format. Bytes that
// do not decode at all are written untouched.
func saveImage(dir, provider string, data []byte, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	if img, format, err := image.Decode(bytes.NewReader(data)); err == nil && format != "png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			data = buf.Bytes()
		}
	}

	filename := provider + "_" + now.Format("20060102_150405") + ".png"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", err
	}
	return filename, nil
}
