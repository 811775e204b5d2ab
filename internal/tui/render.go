package tui

import (
	"image"
	"image/color"
	"strings"

	"github.com/muesli/termenv"
)

// cellRenderer packs two pixel rows into one terminal row with the upper
// half block: foreground is the top pixel, background the bottom one.
// Escape sequences are cached per color and only emitted when a color
// changes along a row.
type cellRenderer struct {
	profile termenv.Profile
	fg, bg  map[color.RGBA]string
	sb      strings.Builder
}

const asciiRamp = " .:-=+*#%@"

func newCellRenderer(p termenv.Profile) *cellRenderer {
	return &cellRenderer{
		profile: p,
		fg:      make(map[color.RGBA]string),
		bg:      make(map[color.RGBA]string),
	}
}

func (r *cellRenderer) seq(cache map[color.RGBA]string, c color.RGBA, bg bool) string {
	if s, ok := cache[c]; ok {
		return s
	}
	s := termenv.CSI + r.profile.FromColor(c).Sequence(bg) + "m"
	cache[c] = s
	return s
}

// render draws img as height/2 rounded-up rows of width cells.
func (r *cellRenderer) render(img *image.RGBA) string {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	rows := (height + 1) / 2

	r.sb.Reset()
	r.sb.Grow(width * rows * 24)

	for row := range rows {
		top, bottom := row*2, row*2+1
		if r.profile == termenv.Ascii {
			for x := range width {
				r.sb.WriteByte(asciiCell(pixel(img, x, top)))
			}
		} else {
			var lastFg, lastBg string
			for x := range width {
				bc := color.RGBA{A: 0xff}
				if bottom < height {
					bc = pixel(img, x, bottom)
				}
				fg := r.seq(r.fg, pixel(img, x, top), false)
				bg := r.seq(r.bg, bc, true)
				if fg != lastFg {
					r.sb.WriteString(fg)
					lastFg = fg
				}
				if bg != lastBg {
					r.sb.WriteString(bg)
					lastBg = bg
				}
				r.sb.WriteString("▀")
			}
			r.sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
		}
		if row < rows-1 {
			r.sb.WriteByte('\n')
		}
	}
	return r.sb.String()
}

func pixel(img *image.RGBA, x, y int) color.RGBA {
	i := img.PixOffset(x, y)
	return color.RGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: 0xff}
}

// asciiCell maps perceived brightness (BT.601) to a ramp character.
func asciiCell(c color.RGBA) byte {
	lum := (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
	return asciiRamp[lum*(len(asciiRamp)-1)/255]
}
