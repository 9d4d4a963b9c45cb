package core

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextVertex matches the VertexInput of the text shader.
type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// TextItem is one block of overlay text. Position is in pixels from the
// top-left corner of the window.
type TextItem struct {
	Text     string
	Position [2]float32
	Scale    float32
	Color    [4]float32
}

type glyph struct {
	uvMin [2]float32
	uvMax [2]float32
	size  [2]float32
	off   [2]float32
	adv   float32
}

const (
	atlasSize    = 256
	atlasPadding = 2
)

// TextRenderer rasterizes the printable ASCII range of a font into a
// single-channel atlas and lays out overlay text as textured quads.
type TextRenderer struct {
	Atlas  *image.Alpha
	glyphs map[rune]glyph
	ascent float32
	line   float32
}

// NewMonoTextRenderer uses the Go Mono font bundled with x/image.
func NewMonoTextRenderer(size float64) (*TextRenderer, error) {
	return NewTextRenderer(gomono.TTF, size)
}

func NewTextRenderer(ttf []byte, size float64) (*TextRenderer, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	tr := &TextRenderer{
		Atlas:  image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize)),
		glyphs: make(map[rune]glyph),
	}
	m := face.Metrics()
	tr.ascent = float32(m.Ascent.Ceil())
	tr.line = float32(m.Height.Ceil())

	if err := tr.pack(face); err != nil {
		return nil, err
	}
	return tr, nil
}

// pack draws every printable ASCII glyph into the atlas, row by row.
func (tr *TextRenderer) pack(face font.Face) error {
	x, y, rowH := atlasPadding, atlasPadding, 0
	for r := rune(' '); r <= '~'; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := bounds.Dx(), bounds.Dy()
		if x+w+atlasPadding > atlasSize {
			x = atlasPadding
			y += rowH + atlasPadding
			rowH = 0
		}
		if y+h+atlasPadding > atlasSize {
			return fmt.Errorf("font too large for %dx%d atlas", atlasSize, atlasSize)
		}

		draw.Draw(tr.Atlas, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)
		tr.glyphs[r] = glyph{
			uvMin: [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			uvMax: [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			size:  [2]float32{float32(w), float32(h)},
			off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			adv:   float32(adv) / 64,
		}

		x += w + atlasPadding
		if h > rowH {
			rowH = h
		}
	}
	return nil
}

func (tr *TextRenderer) Has(r rune) bool {
	_, ok := tr.glyphs[r]
	return ok
}

func (tr *TextRenderer) LineHeight(scale float32) float32 {
	return tr.line * scale
}

// BuildVertices lays out items for a screenW x screenH window and returns
// two triangles per visible glyph in clip space. Unknown runes are skipped
// without advancing.
func (tr *TextRenderer) BuildVertices(items []TextItem, screenW, screenH int) []TextVertex {
	if screenW <= 0 || screenH <= 0 {
		return nil
	}
	sw, sh := float32(screenW), float32(screenH)
	toClip := func(px, py float32) [2]float32 {
		return [2]float32{px/sw*2 - 1, 1 - py/sh*2}
	}

	var out []TextVertex
	for _, item := range items {
		scale := item.Scale
		if scale == 0 {
			scale = 1
		}
		penX := item.Position[0]
		baseline := item.Position[1] + tr.ascent*scale

		for _, r := range item.Text {
			if r == '\n' {
				penX = item.Position[0]
				baseline += tr.line * scale
				continue
			}
			g, ok := tr.glyphs[r]
			if !ok {
				continue
			}
			if g.size[0] > 0 && g.size[1] > 0 {
				p0 := toClip(penX+g.off[0]*scale, baseline+g.off[1]*scale)
				p1 := toClip(penX+(g.off[0]+g.size[0])*scale, baseline+(g.off[1]+g.size[1])*scale)
				topL := TextVertex{Pos: p0, UV: g.uvMin, Color: item.Color}
				topR := TextVertex{Pos: [2]float32{p1[0], p0[1]}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: item.Color}
				botL := TextVertex{Pos: [2]float32{p0[0], p1[1]}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: item.Color}
				botR := TextVertex{Pos: p1, UV: g.uvMax, Color: item.Color}
				out = append(out, topL, topR, botL, topR, botR, botL)
			}
			penX += g.adv * scale
		}
	}
	return out
}

// Measure returns the pixel extent of text at scale.
func (tr *TextRenderer) Measure(text string, scale float32) (float32, float32) {
	var maxW, w float32
	lines := 1
	for _, r := range text {
		if r == '\n' {
			maxW = max(maxW, w)
			w = 0
			lines++
			continue
		}
		if g, ok := tr.glyphs[r]; ok {
			w += g.adv * scale
		}
	}
	return max(maxW, w), tr.line * scale * float32(lines)
}
