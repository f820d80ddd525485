/*
NAME
  decode.go

DESCRIPTION
  decode.go implements the "decode" subcommand: parse an AVIF file and
  write every decoded frame to a Y4M stream, logging each frame's timing
  the way cmd/rv/main.go logs revid's per-pass state.

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
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/avif/bmff"
	"github.com/ausocean/avif/decoder"
	"github.com/ausocean/avif/ioavif"
	"github.com/ausocean/avif/logging"
)

func doDecode(log logging.Logger, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	out := fs.String("o", "", "output Y4M path (default: stdout)")
	backend := fs.String("backend", "ref", "codec back-end name, as registered with codec.Register")
	threads := fs.Int("threads", 1, "max decode threads for tile fan-out")
	strict := fs.Bool("strict", false, "enable full strictness (reject every lenient parse path)")
	allowProgressive := fs.Bool("progressive", false, "publish one frame per layer of a progressive item")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: avifctl decode [flags] input.avif")
	}
	in := fs.Arg(0)

	strictness := bmff.Strictness{}
	if *strict {
		strictness = bmff.Strict()
	}

	src, err := ioavif.NewFileSource(in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", in, err)
	}
	defer src.Close()

	dec := decoder.New(src, decoder.Config{
		ColorBackend:     *backend,
		MaxThreads:       *threads,
		Strictness:       strictness,
		AllowProgressive: *allowProgressive,
	})
	defer dec.Close()

	log.Debug("parsing", "file", in)
	if err := dec.Parse(); err != nil {
		return fmt.Errorf("parsing %s: %w", in, err)
	}
	log.Info("parsed", "file", in, "images", dec.ImageCount(), "progressive", dec.ProgressiveState())

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	wroteHeader := false
	for i := 0; i < dec.ImageCount(); i++ {
		img, timing, err := dec.NextImage()
		if err != nil {
			return fmt.Errorf("decoding frame %d: %w", i, err)
		}
		log.Debug("decoded frame", "n", i, "pts", timing.PTS, "format", timing.FormatTag)
		if !wroteHeader {
			if err := writeY4MHeader(bw, img); err != nil {
				return err
			}
			wroteHeader = true
		}
		if err := writeY4MFrame(bw, img); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	return nil
}
