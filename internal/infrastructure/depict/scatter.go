package depict

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"os"

	"github.com/fogleman/gg"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// ScatterOptions controls the predicted-versus-actual plot.
type ScatterOptions struct {
	Width, Height int
	Title         string
	XLabel        string
	YLabel        string
}

// DefaultScatterOptions returns a 640x480 plot with generic axis labels.
func DefaultScatterOptions() ScatterOptions {
	return ScatterOptions{
		Width:  640,
		Height: 480,
		XLabel: "actual",
		YLabel: "predicted",
	}
}

// ScatterPNG renders actual-vs-predicted pairs with a y=x reference line.
// Both slices must be the same non-zero length.
func ScatterPNG(actual, predicted []float64, opts ScatterOptions) ([]byte, error) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return nil, errors.New(errors.ErrCodeRenderFailed, "scatter series empty or mismatched").
			WithDetail(fmt.Sprintf("actual=%d predicted=%d", len(actual), len(predicted)))
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultScatterOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}

	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for i := range actual {
		lo = math.Min(lo, math.Min(actual[i], predicted[i]))
		hi = math.Max(hi, math.Max(actual[i], predicted[i]))
	}
	if hi-lo < 1e-12 {
		lo, hi = lo-1, hi+1
	}
	span := hi - lo
	lo -= span * 0.05
	hi += span * 0.05
	span = hi - lo

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	const fontSize = 13.0
	face, err := fontFace(fontSize)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	marginL, marginR := 64.0, 20.0
	marginT, marginB := 36.0, 48.0
	plotW := float64(opts.Width) - marginL - marginR
	plotH := float64(opts.Height) - marginT - marginB

	toX := func(v float64) float64 { return marginL + (v-lo)/span*plotW }
	toY := func(v float64) float64 { return marginT + plotH - (v-lo)/span*plotH }

	// Frame and tick marks.
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1)
	dc.DrawRectangle(marginL, marginT, plotW, plotH)
	dc.Stroke()

	const ticks = 5
	for i := 0; i <= ticks; i++ {
		v := lo + span*float64(i)/ticks
		x := toX(v)
		y := toY(v)
		dc.DrawLine(x, marginT+plotH, x, marginT+plotH+5)
		dc.DrawLine(marginL-5, y, marginL, y)
		dc.Stroke()
		label := fmt.Sprintf("%.2f", v)
		dc.DrawStringAnchored(label, x, marginT+plotH+14, 0.5, 0.5)
		dc.DrawStringAnchored(label, marginL-9, y, 1, 0.5)
	}

	// y = x reference.
	dc.SetRGB(0.7, 0.7, 0.7)
	dc.SetDash(4, 4)
	dc.DrawLine(toX(lo), toY(lo), toX(hi), toY(hi))
	dc.Stroke()
	dc.SetDash()

	// Points.
	dc.SetRGBA(0.12, 0.35, 0.72, 0.85)
	for i := range actual {
		dc.DrawCircle(toX(actual[i]), toY(predicted[i]), 3.5)
		dc.Fill()
	}

	dc.SetRGB(0.15, 0.15, 0.15)
	if opts.Title != "" {
		dc.DrawStringAnchored(opts.Title, float64(opts.Width)/2, marginT/2, 0.5, 0.5)
	}
	dc.DrawStringAnchored(opts.XLabel, marginL+plotW/2, float64(opts.Height)-14, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(-math.Pi/2, 18, marginT+plotH/2)
	dc.DrawStringAnchored(opts.YLabel, 18, marginT+plotH/2, 0.5, 0.5)
	dc.Pop()

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRenderFailed, "encode scatter PNG")
	}
	return buf.Bytes(), nil
}

// ScatterToFile writes the plot PNG to the given path.
func ScatterToFile(actual, predicted []float64, opts ScatterOptions, path string) error {
	data, err := ScatterPNG(actual, predicted, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderFailed, "write scatter file").
			WithDetail("path=" + path)
	}
	return nil
}
