// Package render draws a board snapshot as a PNG.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cardchess/internal/board"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultSquareSize = 64

	sideMargin = 24
	topMargin  = 40
)

// Move highlights the last accepted move by tile id.
type Move struct {
	From int
	To   int
}

type Options struct {
	SquareSize int
	Highlight  *Move
	Title      string
	// Flip draws the board from black's side (row 7 on top).
	Flip bool
}

var ErrNilBoard = errors.New("board is nil")

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{28, 31, 46, 255}
	highlightFill       = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	selectableFill      = color.NRGBA{R: 120, G: 200, B: 140, A: 120}
	selectedFill        = color.NRGBA{R: 80, G: 140, B: 240, A: 150}
	titleTextColor      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// Size returns the image dimensions for a square size.
func Size(squareSize int) (w, h int) {
	return squareSize*board.Size + sideMargin*2, squareSize*board.Size + topMargin + sideMargin
}

// RenderPNG encodes b. Tile states painted by a selection machine are drawn
// as overlays.
func RenderPNG(ctx context.Context, b *board.Board, opts Options) ([]byte, error) {
	if b == nil {
		return nil, ErrNilBoard
	}
	sq := opts.SquareSize
	if sq <= 0 {
		sq = DefaultSquareSize
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	w, h := Size(sq)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	origin := image.Point{X: sideMargin, Y: topMargin}

	drawSquares(img, sq, origin, opts.Flip)
	drawOverlays(img, b, opts.Highlight, sq, origin, opts.Flip)
	if err := drawPieces(img, b, sq, origin, opts.Flip); err != nil {
		return nil, err
	}
	drawCoordinates(img, sq, origin, opts.Flip)
	if opts.Title != "" {
		drawer := &font.Drawer{Dst: img, Src: image.NewUniform(titleTextColor), Face: basicfont.Face7x13}
		drawer.Dot = fixed.P(sideMargin, topMargin/2+basicfont.Face7x13.Ascent/2)
		drawer.DrawString(opts.Title)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// tileRect maps board coordinates to pixels. Row 0 is on top unless flipped.
func tileRect(x, y, squareSize int, origin image.Point, flip bool) image.Rectangle {
	col, row := x, y
	if flip {
		col, row = board.Size-1-x, board.Size-1-y
	}
	px := origin.X + col*squareSize
	py := origin.Y + row*squareSize
	return image.Rect(px, py, px+squareSize, py+squareSize)
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point, flip bool) {
	for y := 0; y < board.Size; y++ {
		for x := 0; x < board.Size; x++ {
			clr := lightSquare
			if (x+y)%2 == 1 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, tileRect(x, y, squareSize, origin, flip), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawOverlays(dst imagedraw.Image, b *board.Board, hl *Move, squareSize int, origin image.Point, flip bool) {
	fill := func(id int, clr color.Color) {
		if !board.ValidID(id) {
			return
		}
		x, y := board.Coords(id)
		imagedraw.Draw(dst, tileRect(x, y, squareSize, origin, flip), image.NewUniform(clr), image.Point{}, imagedraw.Over)
	}
	if hl != nil {
		fill(hl.From, highlightFill)
		fill(hl.To, highlightFill)
	}
	for _, t := range b.Tiles() {
		switch t.State {
		case board.TileSelectable:
			fill(t.ID(), selectableFill)
		case board.TileSelected:
			fill(t.ID(), selectedFill)
		}
	}
}

func drawPieces(dst imagedraw.Image, b *board.Board, squareSize int, origin image.Point, flip bool) error {
	for _, t := range b.Tiles() {
		p := t.Piece()
		if p == nil {
			continue
		}
		img, err := renderPieceImage(p, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, tileRect(t.X, t.Y, squareSize, origin, flip), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

// drawCoordinates labels files and ranks the way algebraic notation names
// them: row 0 is rank 8.
func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, flip bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(coordinateTextColor), Face: face}
	boardEnd := origin.Y + board.Size*squareSize

	for i := 0; i < board.Size; i++ {
		sq := nchess.NewSquare(nchess.File(i), nchess.Rank(board.Size-1-i))
		r := tileRect(i, i, squareSize, origin, flip)
		cx := r.Min.X + squareSize/2
		cy := r.Min.Y + squareSize/2

		drawCenteredText(drawer, sq.File().String(), cx, boardEnd+face.Ascent+4)
		drawCenteredText(drawer, sq.Rank().String(), origin.X-sideMargin/2, cy+face.Ascent/2)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
