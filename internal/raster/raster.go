package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"dayview/internal/layout"
)

// Palette limited to what a tri-color panel or a printer can show.
var (
	colorWhite = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorBlack = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
	colorRed   = color.NRGBA{R: 0xD0, G: 0x10, B: 0x10, A: 0xFF}
	colorGrid  = color.NRGBA{R: 0xC8, G: 0xC8, B: 0xC8, A: 0xFF}
	colorFill  = color.NRGBA{R: 0xE8, G: 0xE8, B: 0xE8, A: 0xFF}
	colorTint  = color.NRGBA{R: 0xF8, G: 0xD0, B: 0xD0, A: 0xFF}
)

// ink is the role a pixel plays in the preview.
type ink int

const (
	inkPaper ink = iota
	inkGrid
	inkFill
	inkOutline
	inkHighlightFill
	inkHighlightOutline
)

func (i ink) color() color.NRGBA {
	switch i {
	case inkGrid:
		return colorGrid
	case inkFill:
		return colorFill
	case inkOutline:
		return colorBlack
	case inkHighlightFill:
		return colorTint
	case inkHighlightOutline:
		return colorRed
	default:
		return colorWhite
	}
}

// DrawDay renders table into a new NRGBA image of table.Width x
// table.Height:
//
//   - a grid line at the top of every ruler slot, across the full width
//   - a vertical rule separating the ruler from the occurrence area
//   - one filled, outlined box per packed occurrence, offset by SlotWidth
//   - occurrences whose class contains "highlight" in red
//
// Boxes are clipped to the image; out-of-range boxes are simply not visible.
func DrawDay(table layout.DayTable) (*image.NRGBA, error) {
	if table.Width <= 0 || table.Height <= 0 {
		return nil, fmt.Errorf("raster: table size %dx%d: %w", table.Width, table.Height, layout.ErrInvalidGeometry)
	}

	img := image.NewNRGBA(image.Rect(0, 0, table.Width, table.Height))
	fillRect(img, img.Bounds(), inkPaper)

	for _, s := range table.Slots {
		fillRect(img, image.Rect(0, s.Top, table.Width, s.Top+1), inkGrid)
	}
	if table.SlotWidth > 0 {
		fillRect(img, image.Rect(table.SlotWidth-1, 0, table.SlotWidth, table.Height), inkOutline)
	}

	for _, r := range table.Occurrences {
		fill, outline := inkFill, inkOutline
		if strings.Contains(r.Class, layout.ClassHighlight) {
			fill, outline = inkHighlightFill, inkHighlightOutline
		}
		rect := image.Rect(
			table.SlotWidth+r.Box.Left,
			r.Box.Top,
			table.SlotWidth+r.Box.Left+r.Box.Width,
			r.Box.Top+r.Box.Height,
		)
		fillRect(img, rect, fill)
		strokeRect(img, rect, outline)
	}

	return img, nil
}

// EncodePNG draws table and writes it as PNG.
func EncodePNG(w io.Writer, table layout.DayTable) error {
	img, err := DrawDay(table)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("raster: encode png: %w", err)
	}
	return nil
}

// fillRect paints r clipped to the image, writing Pix directly rather than
// going through Set.
func fillRect(img *image.NRGBA, r image.Rectangle, i ink) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	c := i.color()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Pix[off+0] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = c.A
			off += 4
		}
	}
}

// strokeRect draws a 1px outline just inside r.
func strokeRect(img *image.NRGBA, r image.Rectangle, i ink) {
	if r.Empty() {
		return
	}
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), i)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), i)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), i)
	fillRect(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), i)
}
