// Package qr renders identity payloads as QR images and reads them back.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// Level is a QR error correction level: L, M, Q or H.
type Level string

const (
	LevelL Level = "L"
	LevelM Level = "M"
	LevelQ Level = "Q"
	LevelH Level = "H"
)

func (l Level) recovery() (goqrcode.RecoveryLevel, error) {
	switch strings.ToUpper(string(l)) {
	case "L":
		return goqrcode.Low, nil
	case "M":
		return goqrcode.Medium, nil
	case "Q":
		return goqrcode.High, nil
	case "H", "":
		return goqrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown error correction level %q", l)
}

// Size bounds in pixels and the largest quiet zone in modules.
const (
	MinSize   = 64
	MaxSize   = 1024
	MaxMargin = 16
)

// Options control rendering. Size is the width of the square image in pixels
// and Margin the quiet zone in modules. Size is clamped to [MinSize, MaxSize].
type Options struct {
	Size       int
	Margin     int
	Foreground color.Color
	Background color.Color
	Level      Level
}

func DefaultOptions() Options {
	return Options{
		Size:       280,
		Margin:     2,
		Foreground: color.RGBA{R: 0x1e, G: 0x40, B: 0xaf, A: 0xff},
		Background: color.White,
		Level:      LevelH,
	}
}

type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Image renders content as a square QR symbol.
func (e *Encoder) Image(content string, opts Options) (image.Image, error) {
	if content == "" {
		return nil, errors.New("qr content is empty")
	}
	level, err := opts.Level.recovery()
	if err != nil {
		return nil, err
	}
	opts.Size = clamp(opts.Size, MinSize, MaxSize)
	opts.Margin = clamp(opts.Margin, 0, MaxMargin)
	if opts.Foreground == nil {
		opts.Foreground = color.Black
	}
	if opts.Background == nil {
		opts.Background = color.White
	}

	code, err := goqrcode.New(content, level)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()

	modules := len(bitmap) + 2*opts.Margin
	scale := opts.Size / modules
	if scale < 1 {
		scale = 1
	}
	side := opts.Size
	if modules*scale > side {
		side = modules * scale
	}
	// leftover pixels from integer scaling are split around the symbol
	offset := (side-modules*scale)/2 + opts.Margin*scale

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	fill(img, img.Bounds(), opts.Background)
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := offset + x*scale
			y0 := offset + y*scale
			fill(img, image.Rect(x0, y0, x0+scale, y0+scale), opts.Foreground)
		}
	}
	return img, nil
}

// PNG renders content and encodes it as PNG.
func (e *Encoder) PNG(content string, opts Options) ([]byte, error) {
	img, err := e.Image(content, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, rgba)
		}
	}
}

// ParseHexColor parses #rrggbb or #rgb.
func ParseHexColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
