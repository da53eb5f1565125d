// Package media inspects image files referenced by image posts.
package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io/fs"
	"os"
	"path/filepath"

	_ "golang.org/x/image/webp" // register WebP decoder
)

// Info describes a probed media file. Found is false when the reference does
// not resolve to a file; that case is not an error.
type Info struct {
	Ref    string `json:"ref"`
	Found  bool   `json:"found"`
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Bytes  int64  `json:"bytes,omitempty"`
}

// Prober resolves media references relative to Root.
type Prober struct {
	Root string
}

// NewProber creates a Prober rooted at dir. An empty dir resolves references as given.
func NewProber(dir string) *Prober {
	return &Prober{Root: dir}
}

// Probe reads the image header for ref and reports its format and dimensions.
func (p *Prober) Probe(ref string) (Info, error) {
	info := Info{Ref: ref}

	f, err := os.Open(p.resolve(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return info, nil
		}
		return info, fmt.Errorf("open media: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return info, fmt.Errorf("stat media: %w", err)
	}
	if st.IsDir() {
		return info, nil
	}
	info.Found = true
	info.Bytes = st.Size()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return info, fmt.Errorf("decode media header: %w", err)
	}
	info.Format = format
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info, nil
}

// resolve maps ref under Root; ".." segments cannot climb above it.
func (p *Prober) resolve(ref string) string {
	if p.Root == "" {
		return ref
	}
	return filepath.Join(p.Root, filepath.Clean("/"+ref))
}
