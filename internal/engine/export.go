// Package engine is the headless render engine behind the render adapter.
// It keeps element state, runs the force-directed layout and publishes frames.
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/render"
	"github.com/schemascope/core/internal/search"
)

const (
	exportScale   = 2.0
	exportPadding = 40.0
	maxExportSide = 8192
)

// Export encodes the scene as png, jpg, dot or json.
func (s *Scene) Export(format string) ([]byte, error) {
	if s.Destroyed() {
		return nil, render.ErrDestroyed
	}
	elements := s.Elements()

	switch strings.ToLower(format) {
	case "png":
		var buf bytes.Buffer
		if err := png.Encode(&buf, rasterize(elements)); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), nil
	case "jpg", "jpeg":
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, rasterize(elements), &jpeg.Options{Quality: 90}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		return buf.Bytes(), nil
	case "dot":
		return marshalDOT(elements)
	case "json":
		out, err := json.MarshalIndent(map[string]any{"elements": elements}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal elements: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// rasterize draws edges as lines and nodes as filled boxes or discs on a
// white background, covering the full graph.
func rasterize(elements []models.Element) image.Image {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	nodes := make(map[string]models.Element)
	for _, el := range elements {
		if !el.IsNode() || el.Position == nil {
			continue
		}
		nodes[el.Data.ID] = el
		minX = math.Min(minX, el.Position.X-el.Style.Width/2)
		minY = math.Min(minY, el.Position.Y-el.Style.Height/2)
		maxX = math.Max(maxX, el.Position.X+el.Style.Width/2)
		maxY = math.Max(maxY, el.Position.Y+el.Style.Height/2)
	}
	if len(nodes) == 0 {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}

	width := clampSide((maxX - minX + 2*exportPadding) * exportScale)
	height := clampSide((maxY - minY + 2*exportPadding) * exportScale)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	project := func(p models.Position) (int, int) {
		return int((p.X - minX + exportPadding) * exportScale), int((p.Y - minY + exportPadding) * exportScale)
	}

	for _, el := range elements {
		if !el.IsEdge() {
			continue
		}
		src, okS := nodes[el.Data.Source]
		dst, okT := nodes[el.Data.Target]
		if !okS || !okT {
			continue
		}
		x0, y0 := project(*src.Position)
		x1, y1 := project(*dst.Position)
		drawLine(img, x0, y0, x1, y1, elementColor(el))
	}

	for _, el := range nodes {
		cx, cy := project(*el.Position)
		hw := int(el.Style.Width * exportScale / 2)
		hh := int(el.Style.Height * exportScale / 2)
		fill := elementColor(el)
		if el.Style.Shape == "ellipse" {
			fillEllipse(img, cx, cy, hw, hh, fill)
			continue
		}
		draw.Draw(img, image.Rect(cx-hw, cy-hh, cx+hw, cy+hh), image.NewUniform(fill), image.Point{}, draw.Over)
	}
	return img
}

func clampSide(v float64) int {
	n := int(math.Ceil(v))
	if n < 1 {
		return 1
	}
	if n > maxExportSide {
		return maxExportSide
	}
	return n
}

// elementColor resolves the style color, highlighted in yellow and dimmed
// elements at reduced opacity.
func elementColor(el models.Element) color.RGBA {
	c := parseHex(el.Style.Color)
	for _, class := range el.Classes {
		switch class {
		case search.ClassHighlighted:
			return color.RGBA{R: 0xff, G: 0xeb, B: 0x3b, A: 0xff}
		case search.ClassDimmed:
			c.A = 0x4c
			c.R = uint8(uint16(c.R) * 0x4c / 0xff)
			c.G = uint8(uint16(c.G) * 0x4c / 0xff)
			c.B = uint8(uint16(c.B) * 0x4c / 0xff)
		}
	}
	return c
}

// parseHex accepts #rgb and #rrggbb. Anything else is grey.
func parseHex(s string) color.RGBA {
	grey := color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return grey
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return grey
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func fillEllipse(img *image.RGBA, cx, cy, rx, ry int, c color.RGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	for y := -ry; y <= ry; y++ {
		for x := -rx; x <= rx; x++ {
			if float64(x*x)/float64(rx*rx)+float64(y*y)/float64(ry*ry) <= 1 {
				img.SetRGBA(cx+x, cy+y, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
