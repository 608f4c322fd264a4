// Package thumbnail derives and caches fixed-size JPEG previews for
// thumbnail-capable memes.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	// Decoders for the thumbnail-capable source formats.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/fele-systems/memendex/internal/apperr"
	"github.com/fele-systems/memendex/internal/storage"
)

// targetHeight is the fixed short-edge size of every thumbnail; the
// width follows from the source aspect ratio.
const targetHeight = 100

// Cache lazily materializes thumbnails under {cacheRoot}/thumbnails,
// keyed by meme id. Output is always JPEG regardless of source format.
type Cache struct {
	dir   string
	store storage.Provider
}

// NewCache creates the thumbnails directory under cacheRoot and returns
// a cache reading source images from store.
func NewCache(cacheRoot string, store storage.Provider) (*Cache, error) {
	dir := filepath.Join(cacheRoot, "thumbnails")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("thumbnail: create cache dir: %w", err)
	}
	return &Cache{dir: dir, store: store}, nil
}

// path returns the cache file for a meme id.
func (c *Cache) path(id int64) string {
	return filepath.Join(c.dir, fmt.Sprintf("%d.jpeg", id))
}

// GetOrCreate returns the cached thumbnail bytes for a meme, generating
// and caching them on first access. The check-then-create is not
// atomic: concurrent first requests may both regenerate, which only
// wastes work since the overwrite is idempotent.
func (c *Cache) GetOrCreate(id int64, srcExt string) ([]byte, error) {
	if data, err := os.ReadFile(c.path(id)); err == nil {
		return data, nil
	}

	src, err := c.store.Get(id, srcExt)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: meme %d: %v", apperr.ErrDecodeFailure, id, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scale(img), nil); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	if err := os.WriteFile(c.path(id), buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("thumbnail: write cache: %w", err)
	}
	return buf.Bytes(), nil
}

// Invalidate drops the cached thumbnail for a meme, if any. The next
// request regenerates it from current content.
func (c *Cache) Invalidate(id int64) error {
	err := os.Remove(c.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("thumbnail: invalidate: %w", err)
	}
	return nil
}

// scale downsamples to a fixed height of 100px, computing the width
// from the source aspect ratio.
func scale(src image.Image) image.Image {
	bounds := src.Bounds()
	ratio := float64(bounds.Dy()) / float64(bounds.Dx())
	width := int(math.Round(targetHeight / ratio))
	if width < 1 {
		width = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, targetHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
