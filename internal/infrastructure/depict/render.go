package depict

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/chemtools/qsarpipe/internal/domain/molecule"
	"github.com/chemtools/qsarpipe/pkg/errors"
)

// RenderOptions controls structure depiction.
type RenderOptions struct {
	// MaxSize is the longest canvas edge in pixels.
	MaxSize int
	// Title, when non-empty, is drawn along the bottom edge.
	Title string
}

// DefaultRenderOptions renders a 400px depiction without a caption.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{MaxSize: 400}
}

// elementColors follows common depiction conventions; unlisted elements
// are drawn black.
var elementColors = map[string][3]float64{
	"O":  {0.85, 0.10, 0.10},
	"N":  {0.15, 0.15, 0.85},
	"S":  {0.75, 0.65, 0.0},
	"Cl": {0.10, 0.60, 0.10},
	"F":  {0.10, 0.60, 0.10},
	"Br": {0.55, 0.25, 0.10},
	"I":  {0.45, 0.10, 0.55},
	"P":  {0.85, 0.45, 0.0},
}

func fontFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRenderFailed, "parse embedded font")
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// RenderPNG draws the molecule as a PNG image.  Carbons are drawn as bare
// vertices; heteroatoms get colored element labels with attached hydrogen
// counts.  Aromatic bonds draw as a solid line with an inner dashed
// companion.
func RenderPNG(m *molecule.Molecule, opts RenderOptions) ([]byte, error) {
	if len(m.Atoms) == 0 {
		return nil, errors.New(errors.ErrCodeRenderFailed, "cannot render empty molecule")
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultRenderOptions().MaxSize
	}

	pts := Layout(m)
	minX, minY, maxX, maxY := bounds(pts)
	rx, ry := maxX-minX, maxY-minY
	if rx < 1e-6 {
		rx = 1
	}
	if ry < 1e-6 {
		ry = 1
	}
	scale := math.Min(float64(opts.MaxSize)/rx, float64(opts.MaxSize)/ry)

	fontSize := averageBondLength(m, pts) / 1.8 * scale
	if fontSize > float64(opts.MaxSize)/16 {
		fontSize = float64(opts.MaxSize) / 16
	}
	if fontSize < 8 {
		fontSize = 8
	}

	margin := 2 * fontSize
	width := int(rx*scale + 2*margin)
	height := int(ry*scale + 2*margin)
	titlePad := 0.0
	if opts.Title != "" {
		titlePad = fontSize * 1.6
		height += int(titlePad)
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	face, err := fontFace(fontSize)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	dc.SetLineWidth(math.Max(fontSize/10, 1))

	// Canvas position of atom i, y-flipped so layout y grows upward.
	atomXY := func(i int) (float64, float64) {
		x := margin + scale*(pts[i].X-minX)
		y := float64(height) - titlePad - margin - scale*(pts[i].Y-minY)
		return x, y
	}

	// Label half-extents per atom, so bonds stop short of the text.
	pad := make([]float64, len(m.Atoms))
	for i, a := range m.Atoms {
		if a.Element == "C" && a.Charge == 0 {
			continue
		}
		w, _ := dc.MeasureString(atomLabel(a))
		pad[i] = math.Max(w/2, fontSize/2) + fontSize/8
	}

	for _, b := range m.Bonds {
		x1, y1 := atomXY(b.From)
		x2, y2 := atomXY(b.To)
		x1, y1 = trimTowards(x1, y1, x2, y2, pad[b.From])
		x2, y2 = trimTowards(x2, y2, x1, y1, pad[b.To])

		rad := math.Atan2(y2-y1, x2-x1)
		delta := fontSize / 5
		dxOff := math.Sin(rad) * delta
		dyOff := -math.Cos(rad) * delta

		dc.SetRGB(0, 0, 0)
		switch {
		case b.Aromatic:
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
			dc.SetDash(fontSize/5, fontSize/5)
			dc.DrawLine(x1+dxOff, y1+dyOff, x2+dxOff, y2+dyOff)
			dc.Stroke()
			dc.SetDash()
		case b.Order == 2:
			dc.DrawLine(x1+dxOff/2, y1+dyOff/2, x2+dxOff/2, y2+dyOff/2)
			dc.DrawLine(x1-dxOff/2, y1-dyOff/2, x2-dxOff/2, y2-dyOff/2)
			dc.Stroke()
		case b.Order == 3:
			dc.DrawLine(x1, y1, x2, y2)
			dc.DrawLine(x1+dxOff, y1+dyOff, x2+dxOff, y2+dyOff)
			dc.DrawLine(x1-dxOff, y1-dyOff, x2-dxOff, y2-dyOff)
			dc.Stroke()
		default:
			dc.DrawLine(x1, y1, x2, y2)
			dc.Stroke()
		}
	}

	for i, a := range m.Atoms {
		if a.Element == "C" && a.Charge == 0 {
			continue
		}
		x, y := atomXY(i)
		label := atomLabel(a)
		w, h := dc.MeasureString(label)
		dc.SetRGB(1, 1, 1)
		dc.DrawRectangle(x-w/2-2, y-h/2-2, w+4, h+4)
		dc.Fill()
		c, ok := elementColors[a.Element]
		if !ok {
			c = [3]float64{0, 0, 0}
		}
		dc.SetRGB(c[0], c[1], c[2])
		dc.DrawStringAnchored(label, x, y, 0.5, 0.5)
	}

	if opts.Title != "" {
		dc.SetRGB(0.25, 0.25, 0.25)
		dc.DrawStringAnchored(opts.Title, float64(width)/2, float64(height)-titlePad/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRenderFailed, "encode PNG")
	}
	return buf.Bytes(), nil
}

// RenderToFile writes the depiction PNG to the given path.
func RenderToFile(m *molecule.Molecule, opts RenderOptions, path string) error {
	data, err := RenderPNG(m, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderFailed, "write PNG file").
			WithDetail("path=" + path)
	}
	return nil
}

// atomLabel formats the element symbol with attached hydrogens and charge,
// e.g. "OH", "NH2", "O-".
func atomLabel(a molecule.Atom) string {
	label := a.Element
	switch a.HCount {
	case 0:
	case 1:
		label += "H"
	default:
		label += fmt.Sprintf("H%d", a.HCount)
	}
	switch {
	case a.Charge == 1:
		label += "+"
	case a.Charge == -1:
		label += "-"
	case a.Charge > 1:
		label += fmt.Sprintf("+%d", a.Charge)
	case a.Charge < -1:
		label += fmt.Sprintf("-%d", -a.Charge)
	}
	return label
}

// trimTowards moves (x, y) towards (tx, ty) by dist, stopping at the
// midpoint for very short bonds.
func trimTowards(x, y, tx, ty, dist float64) (float64, float64) {
	if dist <= 0 {
		return x, y
	}
	d := math.Hypot(tx-x, ty-y)
	if d < 1e-9 {
		return x, y
	}
	if dist > d/2 {
		dist = d / 2
	}
	return x + (tx-x)/d*dist, y + (ty-y)/d*dist
}
