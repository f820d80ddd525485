/*
NAME
  histogram.go

DESCRIPTION
  histogram.go implements the "histogram" subcommand: decode one frame of
  an AVIF file and plot a luma-value histogram to a PNG, using
  gonum.org/v1/gonum/stat for the summary statistics and
  gonum.org/v1/plot for the rendering, the same pairing
  cmd/rv/probe.go uses stat.Mean for (there applied to turbidity scores
  rather than pixel values).

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"flag"
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/avif"
	"github.com/ausocean/avif/bmff"
	"github.com/ausocean/avif/decoder"
	"github.com/ausocean/avif/ioavif"
	"github.com/ausocean/avif/logging"
)

func doHistogram(log logging.Logger, args []string) error {
	fs := flag.NewFlagSet("histogram", flag.ExitOnError)
	out := fs.String("o", "histogram.png", "output PNG path")
	backend := fs.String("backend", "ref", "codec back-end name, as registered with codec.Register")
	frame := fs.Int("frame", 0, "frame index to plot")
	bins := fs.Int("bins", 64, "number of histogram bins")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: avifctl histogram [flags] input.avif")
	}
	in := fs.Arg(0)

	src, err := ioavif.NewFileSource(in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", in, err)
	}
	defer src.Close()

	dec := decoder.New(src, decoder.Config{ColorBackend: *backend, Strictness: bmff.Strictness{}})
	defer dec.Close()
	if err := dec.Parse(); err != nil {
		return fmt.Errorf("parsing %s: %w", in, err)
	}

	img, _, err := dec.NthImage(*frame)
	if err != nil {
		return fmt.Errorf("decoding frame %d: %w", *frame, err)
	}

	values, err := lumaValues(img)
	if err != nil {
		return err
	}

	mean, stdDev := stat.MeanStdDev(values, nil)
	log.Info("luma statistics", "frame", *frame, "mean", mean, "stddev", stdDev, "samples", len(values))

	p := plot.New()
	p.Title.Text = fmt.Sprintf("luma histogram: %s frame %d", in, *frame)
	p.X.Label.Text = "luma value"
	p.Y.Label.Text = "count"

	hist, err := plotter.NewHist(values, *bins)
	if err != nil {
		return fmt.Errorf("building histogram: %w", err)
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, *out); err != nil {
		return fmt.Errorf("saving %s: %w", *out, err)
	}
	log.Info("wrote", "file", *out)
	return nil
}

// lumaValues extracts the luma plane's per-sample values as float64,
// gonum/plotter.Values' required input type. Only 8-bit planes are
// supported; any other depth returns avif.ErrUnsupportedDepth.
func lumaValues(img *avif.Image) (plotter.Values, error) {
	planes := img.YUVPlanes()
	if len(planes) == 0 {
		return nil, fmt.Errorf("histogram: image has no colour planes")
	}
	y := planes[0]
	if y.Depth != 8 {
		return nil, avif.ErrUnsupportedDepth()
	}
	values := make(plotter.Values, 0, y.Width*y.Height)
	for row := 0; row < y.Height; row++ {
		start := row * y.RowBytes
		for col := 0; col < y.Width; col++ {
			values = append(values, float64(y.Data[start+col]))
		}
	}
	return values, nil
}
