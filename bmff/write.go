/*
NAME
  write.go

DESCRIPTION
  write.go provides WriteFtyp, the `ftyp` box writer shared by package
  mini's full-file minimized encode and package encoder's standard
  meta/mdat assembly, so both write the exact same brand layout
  parseFtyp accepts.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bmff

import "github.com/ausocean/avif/bitio"

// WriteFtyp appends an `ftyp` box with the given major brand, minor
// version and compatible brand list.
func WriteFtyp(w *bitio.Writer, major string, minor uint32, compatible []string) error {
	if err := w.StartBox("ftyp"); err != nil {
		return err
	}
	w.Write([]byte(major))
	w.WriteU32(minor)
	for _, b := range compatible {
		w.Write([]byte(b))
	}
	return w.FinishBox()
}
