package snapshot

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *exr.RGBAImage {
	img := exr.NewRGBAImage(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, float32(x)/4, float32(y)/4, 2, 1)
		}
	}
	return img
}

func TestWrite_RoundTripsThroughEXR(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)

	src := testImage(8, 4)
	p, err := w.Write("exit", src)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "-exit.exr"))
	assert.True(t, strings.HasPrefix(filepath.Base(p), w.RunID.String()[:8]))

	got, err := exr.DecodeFile(p)
	require.NoError(t, err)
	require.Equal(t, src.Rect.Dx(), got.Rect.Dx())
	require.Equal(t, src.Rect.Dy(), got.Rect.Dy())

	// quarter steps and 2 are exact in half precision; values above 1 survive
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			r, g, b, a := got.RGBA(x+got.Rect.Min.X, y+got.Rect.Min.Y)
			assert.Equal(t, float32(x)/4, r)
			assert.Equal(t, float32(y)/4, g)
			assert.Equal(t, float32(2), b)
			assert.Equal(t, float32(1), a)
		}
	}
}

func TestWrite_NilImage(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil)
	require.NoError(t, err)
	_, err = w.Write("x", nil)
	assert.Error(t, err)
}

func TestWriteFrame_Sequence(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, nil)
	require.NoError(t, err)

	first, err := w.WriteFrame(testImage(2, 2), testImage(2, 2))
	require.NoError(t, err)
	second, err := w.WriteFrame(testImage(2, 2), testImage(2, 2))
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Contains(t, first[0], "0001-exit")
	assert.Contains(t, first[1], "0001-composited")
	assert.Contains(t, second[0], "0002-exit")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestWritePNG(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "nested"), nil)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{10, 20, 30, 255})
	p, err := w.WritePNG("frame", img)
	require.NoError(t, err)

	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	got, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, color.RGBAModel.Convert(got.At(1, 1)))
}
