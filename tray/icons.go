package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"voxtray/status"
)

const iconSize = 44

var (
	clear  = color.RGBA{}
	black  = color.RGBA{A: 255}
	red    = color.RGBA{R: 255, G: 59, B: 48, A: 255}
	amber  = color.RGBA{R: 255, G: 159, B: 10, A: 255}
	green  = color.RGBA{R: 52, G: 199, B: 89, A: 255}
	yellow = color.RGBA{R: 255, G: 204, B: 0, A: 255}
	dark   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

type iconKey struct {
	icon status.Icon
	tier status.Tier
}

// Rendered once. Recording has one icon per tier; the dot grows with the
// input level.
var icons = map[iconKey][]byte{}

func init() {
	base := iconSize / 6.5
	icons[iconKey{icon: status.IconIdle}] = drawIcon(&clear, iconSize/8.0, false)
	icons[iconKey{icon: status.IconBusy}] = drawIcon(&amber, base, false)
	icons[iconKey{icon: status.IconDone}] = drawIcon(&green, base, false)
	icons[iconKey{icon: status.IconWarn}] = drawIcon(&red, base, true)
	for _, t := range []status.Tier{status.TierLow, status.TierMediumLow, status.TierMediumHigh, status.TierHigh} {
		icons[iconKey{status.IconRecording, t}] = drawIcon(&red, base*(1+0.25*float64(t)), false)
	}
}

func iconFor(s status.Status) []byte {
	k := iconKey{icon: s.Icon()}
	if k.icon == status.IconRecording {
		k.tier = s.Tier
	}
	if b, ok := icons[k]; ok {
		return b
	}
	return icons[iconKey{icon: status.IconIdle}]
}

type canvas struct {
	img *image.RGBA
}

func newCanvas() *canvas {
	return &canvas{img: image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))}
}

// fill paints every pixel whose center satisfies in.
func (c *canvas) fill(col color.Color, in func(x, y float64) bool) {
	for y := range iconSize {
		for x := range iconSize {
			if in(float64(x)+0.5, float64(y)+0.5) {
				c.img.Set(x, y, col)
			}
		}
	}
}

func (c *canvas) disk(cx, cy, r float64, col color.Color) {
	c.fill(col, func(x, y float64) bool { return math.Hypot(x-cx, y-cy) <= r })
}

func (c *canvas) png() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		panic("tray icon: " + err.Error())
	}
	return buf.Bytes()
}

// drawIcon draws a black disc with an optional colored dot in the middle
// and an optional yellow "!" badge in the bottom right corner.
func drawIcon(dot *color.RGBA, dotR float64, badge bool) []byte {
	c := newCanvas()
	mid := float64(iconSize) / 2
	c.disk(mid, mid, mid-1, black)
	if dot != nil {
		c.disk(mid, mid, dotR, dot)
	}
	if badge {
		r := iconSize * 0.34
		bx, by := iconSize-r+0.5, iconSize-r+0.5
		c.disk(bx, by, r, yellow)

		hw := r * 0.24
		top := by - r*0.7
		bang := func(from, to float64) func(x, y float64) bool {
			return func(x, y float64) bool {
				ly := (y - top) / (r * 1.4)
				return math.Abs(x-bx) <= hw && ly >= from && ly <= to && math.Hypot(x-bx, y-by) <= r
			}
		}
		c.fill(dark, bang(0.1, 0.62))
		c.fill(dark, bang(0.72, 0.85))
	}
	return c.png()
}
