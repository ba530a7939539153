package thicket

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ImageSource is implemented by painters and canvases that can read back
// the painted surface.
type ImageSource interface {
	Image() (image.Image, error)
}

// Screenshot queues a labeled capture of the surface, taken after the next
// paint. The PNG is written to Config.ScreenshotDir with a timestamped file
// name. Painters that cannot read back their surface log a warning instead.
func (r *Renderer) Screenshot(label string) {
	r.screenshots = append(r.screenshots, label)
}

// flushScreenshots writes every queued capture. Called at the end of Paint.
func (r *Renderer) flushScreenshots() {
	if len(r.screenshots) == 0 {
		return
	}
	defer func() { r.screenshots = r.screenshots[:0] }()

	src, ok := r.painter.(ImageSource)
	if !ok {
		warnf("screenshot: painter %T cannot read back its surface", r.painter)
		return
	}
	img, err := src.Image()
	if err != nil {
		warnf("screenshot: %v", err)
		return
	}
	dir := r.cfg.ScreenshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		warnf("screenshot: mkdir %s: %v", dir, err)
		return
	}
	stamp := time.Now().Format("20060102_150405")
	for _, label := range r.screenshots {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			warnf("screenshot: %v", err)
			continue
		}
		Logger().Debug("screenshot", "path", path)
	}
}

// unpremultiply converts premultiplied RGBA pixels, as read back from a GPU
// surface, to a straight-alpha image.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pixels)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := int(img.Pix[i+3])
		if a == 0 || a == 255 {
			continue
		}
		for j := i; j < i+3; j++ {
			img.Pix[j] = uint8(min(int(img.Pix[j])*255/a, 255))
		}
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
