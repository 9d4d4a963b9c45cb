package snapshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/mrjoshuak/go-openexr/exr"

	volray "github.com/gekko3d/volray"
)

// Writer stores render targets on disk. Float targets go to half float
// OpenEXR files so exit point coordinates survive unclamped; presented
// frames go to PNG. Every file of one run shares the run id prefix.
type Writer struct {
	Dir   string
	RunID uuid.UUID

	mu  sync.Mutex
	seq int
	log volray.Logger
}

func NewWriter(dir string, log volray.Logger) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Writer{
		Dir:   dir,
		RunID: uuid.New(),
		log:   volray.OrNop(log),
	}, nil
}

func (w *Writer) path(name, ext string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s-%s.%s", w.RunID.String()[:8], name, ext))
}

func (w *Writer) next() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	return w.seq
}

// Write stores img as <run>-<name>.exr and returns the path.
func (w *Writer) Write(name string, img *exr.RGBAImage) (string, error) {
	if img == nil {
		return "", fmt.Errorf("snapshot %s: nil image", name)
	}
	p := w.path(name, "exr")
	if err := exr.EncodeFile(p, img); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	w.log.Infof("wrote %s (%dx%d)", p, img.Rect.Dx(), img.Rect.Dy())
	return p, nil
}

// WriteFrame stores both intermediate targets of a frame under the next
// sequence number.
func (w *Writer) WriteFrame(exit, composited *exr.RGBAImage) ([]string, error) {
	n := w.next()
	exitPath, err := w.Write(fmt.Sprintf("%04d-exit", n), exit)
	if err != nil {
		return nil, err
	}
	compPath, err := w.Write(fmt.Sprintf("%04d-composited", n), composited)
	if err != nil {
		return []string{exitPath}, err
	}
	return []string{exitPath, compPath}, nil
}

// WritePNG stores img as <run>-<name>.png.
func (w *Writer) WritePNG(name string, img image.Image) (string, error) {
	p := w.path(name, "png")
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", p, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	w.log.Debugf("wrote %s", p)
	return p, nil
}
