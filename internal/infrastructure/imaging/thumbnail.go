// Package imaging downloads article images and renders JPEG thumbnails.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"NewsBrief/internal/ports"
)

const maxImageBytes = 20 << 20

// Options tunes thumbnail rendering.
type Options struct {
	Width     int
	Quality   int
	Timeout   time.Duration
	UserAgent string
}

// Thumbnailer fetches a source image and scales it to a fixed width.
type Thumbnailer struct {
	client    *http.Client
	width     int
	quality   int
	userAgent string
}

var _ ports.Thumbnailer = (*Thumbnailer)(nil)

// NewThumbnailer constructs a renderer, filling unset options with defaults.
func NewThumbnailer(opts Options) *Thumbnailer {
	if opts.Width <= 0 {
		opts.Width = 320
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Thumbnailer{
		client:    &http.Client{Timeout: opts.Timeout},
		width:     opts.Width,
		quality:   opts.Quality,
		userAgent: opts.UserAgent,
	}
}

// Render downloads sourceURL and returns the encoded JPEG thumbnail.
func (t *Thumbnailer) Render(ctx context.Context, sourceURL string) ([]byte, error) {
	src, err := t.download(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	return t.encode(Scale(src, t.width))
}

func (t *Thumbnailer) download(ctx context.Context, sourceURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Scale resizes src to width, keeping the aspect ratio, onto an opaque
// white canvas.
func Scale(src image.Image, width int) image.Image {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, width, 1))
	}
	height := max(1, b.Dy()*width/b.Dx())

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func (t *Thumbnailer) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
