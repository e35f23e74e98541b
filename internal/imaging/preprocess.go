// Package imaging turns uploaded images into the fixed-size, normalised
// tensors the image models were trained on.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-med-predict/internal/tensor"
)

const (
	DefaultWidth  = 224
	DefaultHeight = 224
	channels      = 3

	// maxPixels bounds the decoded canvas so a tiny compressed file cannot
	// expand into gigabytes of pixels.
	maxPixels = 50_000_000
)

// DecodeError is the single failure kind of preprocessing. Cause carries the
// underlying reason.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return "invalid image: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func decodeErr(format string, args ...any) *DecodeError {
	return &DecodeError{Cause: fmt.Errorf(format, args...)}
}

type Preprocessor struct {
	width    int
	height   int
	maxBytes int64
}

// New returns a preprocessor producing (1,224,224,3) tensors. maxBytes caps
// the encoded image size; zero or less disables the cap.
func New(maxBytes int64) *Preprocessor {
	return &Preprocessor{width: DefaultWidth, height: DefaultHeight, maxBytes: maxBytes}
}

// OutputShape is the shape of every tensor this preprocessor returns.
func (p *Preprocessor) OutputShape() tensor.Shape {
	return tensor.Shape{1, p.height, p.width, channels}
}

// FromBase64 decodes textual image data. Anything up to and including the
// first comma is treated as a data-URL header and dropped.
func (p *Preprocessor) FromBase64(encoded string) (tensor.Tensor, error) {
	if idx := strings.IndexByte(encoded, ','); idx >= 0 {
		encoded = encoded[idx+1:]
	}
	encoded = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, encoded)
	if encoded == "" {
		return tensor.Tensor{}, decodeErr("empty image data")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		var rawErr error
		raw, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if rawErr != nil {
			return tensor.Tensor{}, &DecodeError{Cause: fmt.Errorf("base64: %w", err)}
		}
	}

	return p.FromBytes(raw)
}

// FromReader reads at most maxBytes+1 bytes so oversize uploads are detected
// without buffering them whole.
func (p *Preprocessor) FromReader(r io.Reader) (tensor.Tensor, error) {
	if p.maxBytes > 0 {
		r = io.LimitReader(r, p.maxBytes+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return tensor.Tensor{}, &DecodeError{Cause: fmt.Errorf("read image: %w", err)}
	}

	return p.FromBytes(raw)
}

func (p *Preprocessor) FromBytes(raw []byte) (tensor.Tensor, error) {
	if len(raw) == 0 {
		return tensor.Tensor{}, decodeErr("empty image data")
	}
	if p.maxBytes > 0 && int64(len(raw)) > p.maxBytes {
		return tensor.Tensor{}, decodeErr("image exceeds %d bytes", p.maxBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return tensor.Tensor{}, &DecodeError{Cause: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return tensor.Tensor{}, decodeErr("image has no pixels")
	}
	if cfg.Width*cfg.Height > maxPixels {
		return tensor.Tensor{}, decodeErr("image dimensions %dx%d too large", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return tensor.Tensor{}, &DecodeError{Cause: err}
	}

	return p.FromImage(src)
}

// FromImage converts to RGB, squashes to the target size with Catmull-Rom
// interpolation and scales channels into [0,1].
func (p *Preprocessor) FromImage(src image.Image) (out tensor.Tensor, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out = tensor.Tensor{}
			err = decodeErr("resize failed: %v", recovered)
		}
	}()

	if src == nil {
		return tensor.Tensor{}, &DecodeError{Cause: errors.New("nil image")}
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return tensor.Tensor{}, decodeErr("image has no pixels")
	}

	rgb := toOpaqueRGB(src)

	dst := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), rgb, rgb.Bounds(), draw.Src, nil)

	data := make([]float32, 0, p.width*p.height*channels)
	for y := 0; y < p.height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+p.width*4]
		for x := 0; x < p.width; x++ {
			px := row[x*4 : x*4+4]
			data = append(data, float32(px[0])/255.0, float32(px[1])/255.0, float32(px[2])/255.0)
		}
	}

	return tensor.New(p.OutputShape(), data)
}

// toOpaqueRGB drops the alpha channel without compositing, so colour values
// of translucent pixels are kept as stored.
func toOpaqueRGB(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			i := dst.PixOffset(x-bounds.Min.X, y-bounds.Min.Y)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 0xff
		}
	}

	return dst
}
