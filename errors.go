/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the canonical AVIF error taxonomy and the per-kind
  constructor functions used throughout this module instead of bare
  errors.New calls, so every failure site names its kind.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package avif provides the core AVIF (AV1 Image File Format) data model:
// images, fractions, gainmaps and the canonical error taxonomy shared by
// the bmff, grid, codec, decoder, encoder and mini subpackages.
package avif

import "fmt"

// ErrorKind names a failure mode from the canonical AVIF error taxonomy.
type ErrorKind int

// Error kinds, grouped as in spec.
const (
	ErrorNone ErrorKind = iota

	// Structural container errors.
	KindInvalidFtyp
	KindBMFFParseFailed

	// I/O layer signals.
	KindNoContent
	KindTruncatedData
	KindIOError
	KindIONotSet
	KindWaitingOnIO

	// Pipeline state errors.
	KindMissingImageItem
	KindNoImagesRemaining
	KindNoCodecAvailable

	// Codec failures by category.
	KindDecodeColorFailed
	KindDecodeAlphaFailed
	KindDecodeGainMapFailed
	KindEncodeColorFailed
	KindEncodeAlphaFailed
	KindEncodeGainMapFailed

	// Cross-item validation.
	KindColorAlphaSizeMismatch
	KindIspeSizeMismatch
	KindInvalidImageGrid
	KindInvalidToneMappedImage

	// Caller-side errors.
	KindInvalidArgument
	KindNotImplemented
	KindOutOfMemory
	KindUnsupportedDepth
	KindInvalidCodecSpecificOption
	KindIncompatibleImage
	KindCannotChangeSetting

	// Fallback.
	KindUnknownError
)

var kindNames = map[ErrorKind]string{
	ErrorNone:                      "no_error",
	KindInvalidFtyp:                "invalid_ftyp",
	KindBMFFParseFailed:            "bmff_parse_failed",
	KindNoContent:                  "no_content",
	KindTruncatedData:              "truncated_data",
	KindIOError:                    "io_error",
	KindIONotSet:                   "io_not_set",
	KindWaitingOnIO:                "waiting_on_io",
	KindMissingImageItem:           "missing_image_item",
	KindNoImagesRemaining:          "no_images_remaining",
	KindNoCodecAvailable:           "no_codec_available",
	KindDecodeColorFailed:          "decode_color_failed",
	KindDecodeAlphaFailed:          "decode_alpha_failed",
	KindDecodeGainMapFailed:        "decode_gain_map_failed",
	KindEncodeColorFailed:          "encode_color_failed",
	KindEncodeAlphaFailed:          "encode_alpha_failed",
	KindEncodeGainMapFailed:        "encode_gain_map_failed",
	KindColorAlphaSizeMismatch:     "color_alpha_size_mismatch",
	KindIspeSizeMismatch:           "ispe_size_mismatch",
	KindInvalidImageGrid:           "invalid_image_grid",
	KindInvalidToneMappedImage:     "invalid_tone_mapped_image",
	KindInvalidArgument:            "invalid_argument",
	KindNotImplemented:             "not_implemented",
	KindOutOfMemory:                "out_of_memory",
	KindUnsupportedDepth:           "unsupported_depth",
	KindInvalidCodecSpecificOption: "invalid_codec_specific_option",
	KindIncompatibleImage:          "incompatible_image",
	KindCannotChangeSetting:        "cannot_change_setting",
	KindUnknownError:               "unknown_error",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown_error"
}

// Error is the concrete error type returned by every fallible operation in
// this module. Detail is an optional diagnostic string attached to kinds
// that carry one (bmff_parse_failed, unknown_error, invalid_image_grid,
// invalid_tone_mapped_image).
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Detail)
}

// Is reports whether target names the same error kind, so callers can use
// errors.Is(err, avif.KindNoImagesRemaining) style checks via a sentinel
// built with that kind and no detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the ErrorKind from err, returning KindUnknownError if err
// is not an *Error (including nil).
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknownError
}

func newErr(k ErrorKind) error                { return &Error{Kind: k} }
func newErrf(k ErrorKind, detail string) error { return &Error{Kind: k, Detail: detail} }

// ErrInvalidFtyp reports an unrecognized or absent file-type box.
func ErrInvalidFtyp() error { return newErr(KindInvalidFtyp) }

// ErrBMFFParseFailed reports a structural container parse failure, with a
// human-readable diagnostic.
func ErrBMFFParseFailed(format string, args ...interface{}) error {
	return newErrf(KindBMFFParseFailed, fmt.Sprintf(format, args...))
}

// ErrNoContent reports that an I/O source returned no bytes at all.
func ErrNoContent() error { return newErr(KindNoContent) }

// ErrTruncatedData reports a read that ran past the declared extent.
func ErrTruncatedData() error { return newErr(KindTruncatedData) }

// ErrIOError reports a non-recoverable I/O failure.
func ErrIOError() error { return newErr(KindIOError) }

// ErrIONotSet reports that no byte source has been attached yet.
func ErrIONotSet() error { return newErr(KindIONotSet) }

// ErrWaitingOnIO reports a partial read; the caller may retry later.
func ErrWaitingOnIO() error { return newErr(KindWaitingOnIO) }

// ErrMissingImageItem reports that the requested item does not exist or is
// not an image item.
func ErrMissingImageItem() error { return newErr(KindMissingImageItem) }

// ErrNoImagesRemaining reports that the frame cursor has run out of frames.
func ErrNoImagesRemaining() error { return newErr(KindNoImagesRemaining) }

// ErrNoCodecAvailable reports that no registered backend can service the
// requested category.
func ErrNoCodecAvailable() error { return newErr(KindNoCodecAvailable) }

// ErrDecodeColorFailed reports a color-category codec decode failure.
func ErrDecodeColorFailed() error { return newErr(KindDecodeColorFailed) }

// ErrDecodeAlphaFailed reports an alpha-category codec decode failure.
func ErrDecodeAlphaFailed() error { return newErr(KindDecodeAlphaFailed) }

// ErrDecodeGainMapFailed reports a gainmap-category codec decode failure.
func ErrDecodeGainMapFailed() error { return newErr(KindDecodeGainMapFailed) }

// ErrEncodeColorFailed reports a color-category codec encode failure.
func ErrEncodeColorFailed() error { return newErr(KindEncodeColorFailed) }

// ErrEncodeAlphaFailed reports an alpha-category codec encode failure.
func ErrEncodeAlphaFailed() error { return newErr(KindEncodeAlphaFailed) }

// ErrEncodeGainMapFailed reports a gainmap-category codec encode failure.
func ErrEncodeGainMapFailed() error { return newErr(KindEncodeGainMapFailed) }

// ErrColorAlphaSizeMismatch reports that an alpha item's dimensions do not
// match the primary item's.
func ErrColorAlphaSizeMismatch() error { return newErr(KindColorAlphaSizeMismatch) }

// ErrIspeSizeMismatch reports that an ispe property disagrees with the
// codec configuration's dimensions.
func ErrIspeSizeMismatch() error { return newErr(KindIspeSizeMismatch) }

// ErrInvalidImageGrid reports a malformed grid derived item.
func ErrInvalidImageGrid(format string, args ...interface{}) error {
	return newErrf(KindInvalidImageGrid, fmt.Sprintf(format, args...))
}

// ErrInvalidToneMappedImage reports a malformed tmap derived item.
func ErrInvalidToneMappedImage(format string, args ...interface{}) error {
	return newErrf(KindInvalidToneMappedImage, fmt.Sprintf(format, args...))
}

// ErrInvalidArgument reports a caller-side argument error.
func ErrInvalidArgument(format string, args ...interface{}) error {
	return newErrf(KindInvalidArgument, fmt.Sprintf(format, args...))
}

// ErrNotImplemented reports an unimplemented optional feature.
func ErrNotImplemented() error { return newErr(KindNotImplemented) }

// ErrOutOfMemory reports an allocation failure.
func ErrOutOfMemory() error { return newErr(KindOutOfMemory) }

// ErrUnsupportedDepth reports a sample depth the pipeline cannot handle.
func ErrUnsupportedDepth() error { return newErr(KindUnsupportedDepth) }

// ErrInvalidCodecSpecificOption reports a rejected `key=value` backend
// option, surfaced at the next encode call as spec requires.
func ErrInvalidCodecSpecificOption(key string) error {
	return newErrf(KindInvalidCodecSpecificOption, key)
}

// ErrIncompatibleImage reports an image incompatible with a prior one in
// the same sequence/grid (depth, format, or dimensions changed).
func ErrIncompatibleImage() error { return newErr(KindIncompatibleImage) }

// ErrCannotChangeSetting reports an attempt to change a setting after the
// backend has already been initialized with it.
func ErrCannotChangeSetting() error { return newErr(KindCannotChangeSetting) }

// ErrUnknownError is the diagnostic fallback.
func ErrUnknownError(format string, args ...interface{}) error {
	return newErrf(KindUnknownError, fmt.Sprintf(format, args...))
}
