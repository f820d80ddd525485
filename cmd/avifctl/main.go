/*
NAME
  main.go

DESCRIPTION
  main.go is the avifctl entry point: a single binary dispatching to the
  decode/encode/watch/histogram subcommands, each a do<Name>(log, args)
  error function, grounded on google-wuffs/cmd/wuffs/main.go's commands table
  and cmd/rv/main.go's run()-error-then-os.Exit(1) shape.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command avifctl is a CLI front-end over the decode and encode
// orchestrators: it decodes an AVIF file to Y4M, encodes Y4M frames to
// AVIF, watches a directory for dropped files, and plots a luma
// histogram for one decoded frame.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/avif/logging"
)

// version is printed by -version.
const version = "v0.1.0"

var commands = []struct {
	name string
	do   func(log logging.Logger, args []string) error
}{
	{"decode", doDecode},
	{"encode", doEncode},
	{"watch", doWatch},
	{"histogram", doHistogram},
}

func usage() {
	fmt.Fprintf(os.Stderr, `avifctl is a tool for working with AVIF files.

Usage:

	avifctl command [arguments]

The commands are:

	decode     decode an AVIF file to Y4M
	encode     encode Y4M frames to an AVIF file
	watch      watch a directory and encode Y4M files as they appear
	histogram  plot a luma histogram for one decoded frame

Use "avifctl command -h" for the arguments of a given command.
`)
}

func main() {
	showVersion := flag.Bool("version", false, "show version")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	level := logging.Info
	if *verbose {
		level = logging.Debug
	}
	log := logging.New(logging.Config{Level: level})

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	for _, c := range commands {
		if args[0] != c.name {
			continue
		}
		if err := c.do(log, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "avifctl %s: %v\n", c.name, err)
			os.Exit(1)
		}
		return
	}

	usage()
	os.Exit(1)
}
