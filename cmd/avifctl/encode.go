/*
NAME
  encode.go

DESCRIPTION
  encode.go implements the "encode" subcommand: read one or more Y4M
  files and drive encoder.Encoder's add-image/finish state machine to
  produce a single AVIF file, single-image or image-sequence depending on
  how many inputs and frames are given.

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
	"io"
	"os"
	"strings"

	"github.com/ausocean/avif"
	"github.com/ausocean/avif/encoder"
	"github.com/ausocean/avif/logging"
)

func doEncode(log logging.Logger, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	out := fs.String("o", "out.avif", "output AVIF path")
	codecName := fs.String("codec", "ref", "codec back-end name, as registered with codec.Register")
	quality := fs.Int("q", 90, "encode quality, 0..100")
	speed := fs.Int("speed", 6, "encode speed, 0..10")
	threads := fs.Int("threads", 1, "encode thread count")
	minimized := fs.Bool("mini", false, "write the compact mif3 header instead of a full meta box tree")
	sequence := fs.Bool("sequence", false, "treat every frame across all inputs as one image sequence")
	timescale := fs.Uint("timescale", 1000, "image-sequence timescale (ticks per second)")
	duration := fs.Uint("duration", 1000, "per-frame duration in timescale ticks, for -sequence")
	options := fs.String("opt", "", "comma-separated key=value codec-specific options, optionally c:/a:/g:-prefixed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: avifctl encode [flags] input.y4m [input2.y4m ...]")
	}

	mutable := encoder.DefaultMutableSettings()
	mutable.QualityColor, mutable.QualityAlpha, mutable.QualityGainMap = *quality, *quality, *quality

	immutable := encoder.DefaultImmutableSettings()
	immutable.Codec = *codecName
	immutable.Speed = *speed
	immutable.Threads = *threads
	immutable.Timescale = uint32(*timescale)
	if *minimized {
		immutable.HeaderFormat = encoder.HeaderMinimized
	}

	enc, err := encoder.NewEncoder(mutable, immutable, log)
	if err != nil {
		return fmt.Errorf("creating encoder: %w", err)
	}
	for _, kv := range strings.Split(*options, ",") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("malformed -opt entry %q, want key=value", kv)
		}
		enc.SetOption(parts[0], parts[1])
	}

	var all []*avif.Image
	for _, path := range fs.Args() {
		log.Debug("reading", "file", path)
		frames, err := readAllY4MFrames(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		all = append(all, frames...)
	}

	isSequence := *sequence || len(all) > 1
	log.Info("encoding", "frames", len(all), "codec", *codecName, "sequence", isSequence)
	for i, img := range all {
		if isSequence {
			if err := enc.AddImageForSequence(img, uint64(*duration)); err != nil {
				return fmt.Errorf("adding frame %d: %w", i, err)
			}
			continue
		}
		if err := enc.AddImage(img); err != nil {
			return fmt.Errorf("adding frame %d: %w", i, err)
		}
	}

	data, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("finishing encode: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Info("wrote", "file", *out, "bytes", len(data))
	return nil
}

// readAllY4MFrames reads every frame from a Y4M file at path.
func readAllY4MFrames(path string) ([]*avif.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	hdr, err := readY4MHeader(r)
	if err != nil {
		return nil, err
	}

	var frames []*avif.Image
	for {
		img, err := readY4MFrame(r, hdr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, img)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames found")
	}
	return frames, nil
}
