package waterfall

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette maps the normalized intensities of the left and right channel to
// a pixel color. Red at 255 is reserved for frequency markers only by
// convention; palettes may still produce it.
type Palette interface {
	Name() string
	Color(left, right uint8) color.RGBA
}

// ParsePalette returns the palette registered under name.
func ParsePalette(name string) (Palette, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "stereo", "":
		return Stereo{}, nil
	case "heat":
		return NewHeat(), nil
	default:
		return nil, fmt.Errorf("unknown palette: %q", name)
	}
}

// Stereo encodes stereo balance: red is the average of both channels, green
// the left channel and blue the right. A centered signal is grey-white,
// a hard-left one yellow-green, a hard-right one magenta-blue.
type Stereo struct{}

func (Stereo) Name() string { return "stereo" }

func (Stereo) Color(left, right uint8) color.RGBA {
	return color.RGBA{
		R: uint8((uint16(left) + uint16(right)) / 2),
		G: left,
		B: right,
		A: 0xff,
	}
}

// Heat maps the louder channel through a dark-to-bright ramp blended in
// HCL space, then dims green or blue toward the quieter side so balance
// stays visible.
type Heat struct {
	lut [256]color.RGBA
}

var heatStops = []string{"#000004", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"}

// NewHeat builds the 256 entry lookup table.
func NewHeat() *Heat {
	stops := make([]colorful.Color, len(heatStops))
	for i, hex := range heatStops {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic(fmt.Sprintf("heat palette stop %q: %v", hex, err))
		}
		stops[i] = c
	}

	h := &Heat{}
	segments := float64(len(stops) - 1)
	for i := range h.lut {
		pos := float64(i) / 255 * segments
		seg := min(int(pos), len(stops)-2)
		c := stops[seg].BlendHcl(stops[seg+1], pos-float64(seg)).Clamped()
		r, g, b := c.RGB255()
		h.lut[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return h
}

func (*Heat) Name() string { return "heat" }

func (h *Heat) Color(left, right uint8) color.RGBA {
	c := h.lut[max(left, right)]
	switch {
	case left > right:
		c.B = uint8(uint16(c.B) * uint16(right) / uint16(left))
	case right > left:
		c.G = uint8(uint16(c.G) * uint16(left) / uint16(right))
	}
	return c
}
