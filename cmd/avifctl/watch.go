/*
NAME
  watch.go

DESCRIPTION
  watch.go implements the "watch" subcommand: watch a directory for
  newly-written .y4m files and encode each one to an adjacent .avif file
  as it appears, looping indefinitely until interrupted, grounded on
  cmd/looper/main.go's repeated-playback-until-interrupted shape.

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
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/avif/encoder"
	"github.com/ausocean/avif/logging"
)

func doWatch(log logging.Logger, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	codecName := fs.String("codec", "ref", "codec back-end name, as registered with codec.Register")
	quality := fs.Int("q", 90, "encode quality, 0..100")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: avifctl watch [flags] directory")
	}
	dir := fs.Arg(0)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	log.Info("watching", "dir", dir)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !strings.EqualFold(filepath.Ext(ev.Name), ".y4m") {
				continue
			}
			if err := encodeOne(log, ev.Name, *codecName, *quality); err != nil {
				log.Error("failed to encode dropped file", "file", ev.Name, "error", err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warning("watcher error", "error", err.Error())
		case <-interrupt:
			log.Info("interrupted, stopping watch")
			return nil
		}
	}
}

// encodeOne encodes the Y4M file at path to an adjacent .avif file of the
// same base name, the single-file shortcut doEncode's flag surface offers
// as a full subcommand.
func encodeOne(log logging.Logger, path, codecName string, quality int) error {
	frames, err := readAllY4MFrames(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	mutable := encoder.DefaultMutableSettings()
	mutable.QualityColor, mutable.QualityAlpha, mutable.QualityGainMap = quality, quality, quality
	immutable := encoder.DefaultImmutableSettings()
	immutable.Codec = codecName

	enc, err := encoder.NewEncoder(mutable, immutable, log)
	if err != nil {
		return err
	}

	isSequence := len(frames) > 1
	for i, img := range frames {
		if isSequence {
			if err := enc.AddImageForSequence(img, uint64(immutable.Timescale)); err != nil {
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

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".avif"
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	log.Info("encoded", "in", path, "out", out, "bytes", len(data))
	return nil
}
