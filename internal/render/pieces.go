package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/park285/cardchess/internal/board"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Glyph bodies drawn in a 45x45 viewBox. {F} and {S} are replaced with the
// side's fill and stroke colors.
var glyphs = map[board.Kind]string{
	board.Pawn: `<circle cx="22.5" cy="14" r="5.5" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<path d="M17 21 L28 21 L31 33 L14 33 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="11" y="33" width="23" height="5" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	board.Rook: `<path d="M11 9 L15 9 L15 12 L20 12 L20 9 L25 9 L25 12 L30 12 L30 9 L34 9 L34 16 L11 16 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="14" y="16" width="17" height="16" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="10" y="32" width="25" height="6" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	board.Knight: `<path d="M22 10 C32 11 36 20 34 38 L15 38 C15 30 22 28 20 23 C17 25 14 27 12 25 C10 22 15 17 18 13 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<circle cx="20" cy="16" r="1.5" fill="{S}"/>`,
	board.Bishop: `<circle cx="22.5" cy="8" r="2.5" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<ellipse cx="22.5" cy="21" rx="7" ry="10" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<path d="M20 18 L25 18 M22.5 15.5 L22.5 20.5" stroke="{S}" stroke-width="1.5"/>
<rect x="11" y="32" width="23" height="6" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	board.Queen: `<path d="M9 14 L14 30 L31 30 L36 14 L29 24 L22.5 10 L16 24 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="12" y="30" width="21" height="8" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	board.King: `<path d="M22.5 5 L22.5 13 M19 8.5 L26 8.5" stroke="{S}" stroke-width="2"/>
<path d="M13 17 L32 17 L30 31 L15 31 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="11" y="31" width="23" height="7" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	board.Jumper: `<polygon points="22.5,7 34,22.5 22.5,38 11,22.5" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<polygon points="22.5,15 27,22.5 22.5,30 18,22.5" fill="{S}"/>`,
	board.Ogre: `<path d="M10 8 L16 15 L29 15 L35 8 L34 20 L11 20 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<rect x="10" y="20" width="25" height="18" rx="3" fill="{F}" stroke="{S}" stroke-width="1.5"/>
<circle cx="17" cy="26" r="2" fill="{S}"/><circle cx="28" cy="26" r="2" fill="{S}"/>`,
}

// Reversed pawns get a ring so they read differently from ordinary ones.
const reversedRing = `<circle cx="22.5" cy="22.5" r="20" fill="none" stroke="#d24a4a" stroke-width="2.5"/>`

func pieceSVG(kind board.Kind, c board.Color, reversed bool) ([]byte, error) {
	body, ok := glyphs[kind]
	if !ok {
		return nil, fmt.Errorf("no glyph for kind %d", kind)
	}
	fill, stroke := "#f8f8f8", "#1b1b1b"
	if c == board.Black {
		fill, stroke = "#2b2b2b", "#0a0a0a"
	}
	body = strings.NewReplacer("{F}", fill, "{S}", stroke).Replace(body)
	if reversed {
		body += reversedRing
	}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` + body + `</svg>`
	return []byte(svg), nil
}

type pieceCacheKey struct {
	kind     board.Kind
	color    board.Color
	reversed bool
	size     int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(p *board.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{kind: p.Kind, color: p.Color, reversed: p.Reversed && p.Kind == board.Pawn, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	data, err := pieceSVG(key.kind, key.color, key.reversed)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
