package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-med-predict/internal/tensor"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func assertNormalised(t *testing.T, out tensor.Tensor) {
	t.Helper()
	assert.Equal(t, tensor.Shape{1, 224, 224, 3}, out.Shape)
	assert.Len(t, out.Data, 224*224*3)
	lo, hi := out.MinMax()
	assert.GreaterOrEqual(t, lo, float32(0))
	assert.LessOrEqual(t, hi, float32(1))
}

func TestPreprocessor_ShapeAndRangeAcrossColorModels(t *testing.T) {
	p := New(0)

	gray := image.NewGray(image.Rect(0, 0, 31, 17))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 256)
	}

	paletted := image.NewPaletted(image.Rect(0, 0, 10, 40), palette.Plan9)
	for i := range paletted.Pix {
		paletted.Pix[i] = uint8(i % len(palette.Plan9))
	}

	translucent := solid(300, 120, color.NRGBA{R: 10, G: 200, B: 90, A: 40})

	cases := map[string]image.Image{
		"grayscale":   gray,
		"palette":     paletted,
		"alpha":       translucent,
		"one pixel":   solid(1, 1, color.White),
		"large rgba":  image.NewRGBA(image.Rect(0, 0, 640, 480)),
		"16-bit gray": image.NewGray16(image.Rect(0, 0, 8, 8)),
	}

	for name, img := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := p.FromBytes(encodePNG(t, img))
			require.NoError(t, err)
			assertNormalised(t, out)
		})
	}
}

func TestPreprocessor_RedSquareStaysRed(t *testing.T) {
	p := New(0)
	raw := encodePNG(t, solid(50, 50, color.NRGBA{R: 255, A: 255}))

	out, err := p.FromBase64(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assertNormalised(t, out)

	for i := 0; i < len(out.Data); i += 3 {
		assert.InDelta(t, 1.0, out.Data[i], 1e-2)
		assert.InDelta(t, 0.0, out.Data[i+1], 1e-2)
		assert.InDelta(t, 0.0, out.Data[i+2], 1e-2)
	}
}

func TestPreprocessor_AlphaIsDroppedNotComposited(t *testing.T) {
	p := New(0)
	out, err := p.FromImage(solid(4, 4, color.NRGBA{R: 0, G: 255, B: 0, A: 1}))
	require.NoError(t, err)

	assert.InDelta(t, 0.0, out.Data[0], 1e-2)
	assert.InDelta(t, 1.0, out.Data[1], 1e-2)
	assert.InDelta(t, 0.0, out.Data[2], 1e-2)
}

func TestPreprocessor_Base64Variants(t *testing.T) {
	p := New(0)
	raw := encodePNG(t, solid(7, 9, color.NRGBA{B: 255, A: 255}))

	t.Run("data url header is stripped", func(t *testing.T) {
		out, err := p.FromBase64("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))
		require.NoError(t, err)
		assertNormalised(t, out)
	})

	t.Run("unpadded base64", func(t *testing.T) {
		out, err := p.FromBase64(base64.RawStdEncoding.EncodeToString(raw))
		require.NoError(t, err)
		assertNormalised(t, out)
	})

	t.Run("line wrapped base64", func(t *testing.T) {
		enc := base64.StdEncoding.EncodeToString(raw)
		wrapped := enc[:10] + "\n" + enc[10:]
		_, err := p.FromBase64(wrapped)
		require.NoError(t, err)
	})
}

func TestPreprocessor_JPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(100, 60, color.NRGBA{R: 120, G: 30, B: 200, A: 255}), nil))

	out, err := New(0).FromReader(&buf)
	require.NoError(t, err)
	assertNormalised(t, out)
}

func TestPreprocessor_DecodeErrors(t *testing.T) {
	p := New(1024)

	cases := map[string]func() error{
		"not base64": func() error {
			_, err := p.FromBase64("!!!not-base64!!!")
			return err
		},
		"empty": func() error {
			_, err := p.FromBase64("data:image/png;base64,")
			return err
		},
		"not an image": func() error {
			_, err := p.FromBytes([]byte("plain text, definitely not pixels"))
			return err
		},
		"truncated png": func() error {
			raw := encodePNG(t, solid(20, 20, color.White))
			_, err := p.FromBytes(raw[:len(raw)/2])
			return err
		},
		"too large": func() error {
			_, err := p.FromReader(strings.NewReader(strings.Repeat("x", 2048)))
			return err
		},
	}

	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			err := run()
			require.Error(t, err)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %T", err)
		})
	}
}
