/*
NAME
  sato.go

DESCRIPTION
  sato.go implements the Sample Transform (`sato`) derived-image expression:
  a postfix (reverse-Polish) token stream combining one or more input images
  into one output image, used to extend AV1's 8/10/12-bit sample range to
  16 bits via two stacked coded images (the bit-depth-extension recipes).

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package grid

import (
	"github.com/ausocean/avif"
)

// TokenKind tags one entry of a SampleTransform expression's postfix token
// stream.
type TokenKind uint8

const (
	TokenConstant TokenKind = iota
	TokenImageItem
	TokenNegation
	TokenAbsolute
	TokenNot
	TokenBsr
	TokenSum
	TokenDifference
	TokenProduct
	TokenQuotient
	TokenAnd
	TokenOr
	TokenXor
	TokenPow
	TokenMin
	TokenMax
)

// wireCode is the on-the-wire token type byte this kind serializes to.
func (k TokenKind) wireCode(imageItem int) uint8 {
	switch k {
	case TokenConstant:
		return 0
	case TokenImageItem:
		return uint8(imageItem + 1)
	case TokenNegation:
		return 64
	case TokenAbsolute:
		return 65
	case TokenNot:
		return 66
	case TokenBsr:
		return 67
	case TokenSum:
		return 128
	case TokenDifference:
		return 129
	case TokenProduct:
		return 130
	case TokenQuotient:
		return 131
	case TokenAnd:
		return 132
	case TokenOr:
		return 133
	case TokenXor:
		return 134
	case TokenPow:
		return 135
	case TokenMin:
		return 136
	case TokenMax:
		return 137
	default:
		return 0
	}
}

func tokenKindFromWireCode(code uint8) (kind TokenKind, imageItem int) {
	switch {
	case code == 0:
		return TokenConstant, 0
	case code >= 1 && code <= 63:
		return TokenImageItem, int(code) - 1
	case code == 64:
		return TokenNegation, 0
	case code == 65:
		return TokenAbsolute, 0
	case code == 66:
		return TokenNot, 0
	case code == 67:
		return TokenBsr, 0
	case code == 128:
		return TokenSum, 0
	case code == 129:
		return TokenDifference, 0
	case code == 130:
		return TokenProduct, 0
	case code == 131:
		return TokenQuotient, 0
	case code == 132:
		return TokenAnd, 0
	case code == 133:
		return TokenOr, 0
	case code == 134:
		return TokenXor, 0
	case code == 135:
		return TokenPow, 0
	case code == 136:
		return TokenMin, 0
	case code == 137:
		return TokenMax, 0
	default:
		return TokenConstant, 0
	}
}

// Token is a single postfix expression entry. Constant and ImageItem are
// the only fields valid for their respective kinds.
type Token struct {
	Kind      TokenKind
	Constant  int64
	ImageItem int // 0-based index into the sato item's dimg input list.
}

// Expression is a decoded/encoded `sato` payload: a bit depth for
// intermediate and constant values, and the postfix token stream.
type Expression struct {
	BitDepth uint8 // 8, 16, 32 or 64
	Tokens   []Token
}

// bitDepthCode maps a bit depth to its 2-bit wire code and back.
func bitDepthCode(bits uint8) (uint8, error) {
	switch bits {
	case 8:
		return 0, nil
	case 16:
		return 1, nil
	case 32:
		return 2, nil
	case 64:
		return 3, nil
	default:
		return 0, avif.ErrInvalidArgument("sample transform bit depth %d is not 8/16/32/64", bits)
	}
}

func bitDepthFromCode(code uint8) uint8 { return 8 << code }

// BitDepthExtension8b8bRecipe returns the two-input expression combining an
// 8-bit base image and an 8-bit hidden image into a 16-bit sample:
// (base << 8) | hidden.
func BitDepthExtension8b8bRecipe() Expression {
	return Expression{
		BitDepth: 32,
		Tokens: []Token{
			{Kind: TokenConstant, Constant: 256},
			{Kind: TokenImageItem, ImageItem: 0},
			{Kind: TokenProduct},
			{Kind: TokenImageItem, ImageItem: 1},
			{Kind: TokenOr},
		},
	}
}

// BitDepthExtension12b4bRecipe returns the two-input expression combining a
// 12-bit base image and an 8-bit hidden image (its top 4 bits carrying the
// extension) into a 16-bit sample: (base << 4) | (hidden >> 4).
func BitDepthExtension12b4bRecipe() Expression {
	return Expression{
		BitDepth: 32,
		Tokens: []Token{
			{Kind: TokenConstant, Constant: 16},
			{Kind: TokenImageItem, ImageItem: 0},
			{Kind: TokenProduct},
			{Kind: TokenImageItem, ImageItem: 1},
			{Kind: TokenConstant, Constant: 16},
			{Kind: TokenQuotient},
			{Kind: TokenSum},
		},
	}
}

// Encode serializes e into its `sato` item payload.
func (e Expression) Encode() ([]byte, error) {
	code, err := bitDepthCode(e.BitDepth)
	if err != nil {
		return nil, err
	}
	if len(e.Tokens) > 255 {
		return nil, avif.ErrInvalidArgument("sample transform has more than 255 tokens")
	}
	constByteLen := int(e.BitDepth / 8)

	out := make([]byte, 0, 2+len(e.Tokens)*(1+constByteLen))
	out = append(out, code) // version=0 (bits 7:6), reserved=0 (bits 5:2), bit_depth in bits 1:0.
	out = append(out, uint8(len(e.Tokens)))
	for _, t := range e.Tokens {
		out = append(out, t.Kind.wireCode(t.ImageItem))
		if t.Kind == TokenConstant {
			out = append(out, encodeBESigned(t.Constant, constByteLen)...)
		}
	}
	return out, nil
}

// DecodeExpression parses a `sato` item payload.
func DecodeExpression(data []byte) (Expression, error) {
	if len(data) < 2 {
		return Expression{}, avif.ErrTruncatedData()
	}
	header := data[0]
	version := header >> 6
	if version != 0 {
		return Expression{}, avif.ErrInvalidCodecSpecificOption("sato version")
	}
	bitDepth := bitDepthFromCode(header & 0x3)
	constByteLen := int(bitDepth / 8)

	tokenCount := int(data[1])
	pos := 2
	tokens := make([]Token, 0, tokenCount)
	for i := 0; i < tokenCount; i++ {
		if pos >= len(data) {
			return Expression{}, avif.ErrTruncatedData()
		}
		code := data[pos]
		pos++
		kind, imageItem := tokenKindFromWireCode(code)
		tok := Token{Kind: kind, ImageItem: imageItem}
		if kind == TokenConstant {
			if pos+constByteLen > len(data) {
				return Expression{}, avif.ErrTruncatedData()
			}
			tok.Constant = decodeBESigned(data[pos : pos+constByteLen])
			pos += constByteLen
		}
		tokens = append(tokens, tok)
	}
	return Expression{BitDepth: bitDepth, Tokens: tokens}, nil
}

func encodeBESigned(v int64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		shift := uint((n - 1 - i) * 8)
		out[i] = byte(v >> shift)
	}
	return out
}

func decodeBESigned(b []byte) int64 {
	var v int64
	if len(b) > 0 && b[0]&0x80 != 0 {
		v = -1 // sign-extend
	}
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	return v
}

// Apply evaluates the expression for one sample, given the corresponding
// sample from each input image in dimg order.
func (e Expression) Apply(inputs []int64) (int64, error) {
	var stack []int64
	push := func(v int64) { stack = append(stack, v) }
	pop := func() (int64, error) {
		if len(stack) == 0 {
			return 0, avif.ErrInvalidCodecSpecificOption("sato stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for _, t := range e.Tokens {
		switch t.Kind {
		case TokenConstant:
			push(t.Constant)
		case TokenImageItem:
			if t.ImageItem < 0 || t.ImageItem >= len(inputs) {
				return 0, avif.ErrInvalidCodecSpecificOption("sato image item index out of range")
			}
			push(inputs[t.ImageItem])
		case TokenNegation, TokenAbsolute, TokenNot, TokenBsr:
			a, err := pop()
			if err != nil {
				return 0, err
			}
			push(applyUnary(t.Kind, a))
		default:
			b, err := pop()
			if err != nil {
				return 0, err
			}
			a, err := pop()
			if err != nil {
				return 0, err
			}
			v, err := applyBinary(t.Kind, a, b)
			if err != nil {
				return 0, err
			}
			push(v)
		}
	}
	if len(stack) != 1 {
		return 0, avif.ErrInvalidCodecSpecificOption("sato expression did not reduce to a single value")
	}
	return stack[0], nil
}

func applyUnary(k TokenKind, a int64) int64 {
	switch k {
	case TokenNegation:
		return -a
	case TokenAbsolute:
		if a < 0 {
			return -a
		}
		return a
	case TokenNot:
		return ^a
	case TokenBsr:
		if a == 0 {
			return -1
		}
		n := int64(-1)
		for v := a; v != 0; v >>= 1 {
			n++
		}
		return n
	default:
		return a
	}
}

func applyBinary(k TokenKind, a, b int64) (int64, error) {
	switch k {
	case TokenSum:
		return a + b, nil
	case TokenDifference:
		return a - b, nil
	case TokenProduct:
		return a * b, nil
	case TokenQuotient:
		if b == 0 {
			return 0, avif.ErrInvalidCodecSpecificOption("sato division by zero")
		}
		return a / b, nil
	case TokenAnd:
		return a & b, nil
	case TokenOr:
		return a | b, nil
	case TokenXor:
		return a ^ b, nil
	case TokenPow:
		result := int64(1)
		for i := int64(0); i < b; i++ {
			result *= a
		}
		return result, nil
	case TokenMin:
		if a < b {
			return a, nil
		}
		return b, nil
	case TokenMax:
		if a > b {
			return a, nil
		}
		return b, nil
	default:
		return 0, avif.ErrInvalidCodecSpecificOption("unknown sato binary operator")
	}
}
