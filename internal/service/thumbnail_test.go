package service

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader returns a PNG signature and IHDR chunk claiming w x h pixels,
// enough for image.DecodeConfig but not for a full decode.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolour

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestThumbnail_FitsCertificatePhotoBox(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"landscape scaled down", 1600, 900, 800, 450},
		{"portrait scaled down", 600, 1200, 300, 600},
		{"small image kept", 320, 240, 320, 240},
	}

	p := NewImagingProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb, err := p.Thumbnail(bytes.NewReader(encodePNG(t, tt.width, tt.height)))
			require.NoError(t, err)
			assert.Equal(t, tt.width, thumb.SourceWidth)
			assert.Equal(t, tt.height, thumb.SourceHeight)

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb.JPEG))
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}

func TestThumbnail_TransparencyBecomesWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	thumb, err := NewImagingProcessor().Thumbnail(&buf)
	require.NoError(t, err)

	out, err := jpeg.Decode(bytes.NewReader(thumb.JPEG))
	require.NoError(t, err)
	r, g, b, _ := out.At(20, 20).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestThumbnail_RejectsOversizedDimensions(t *testing.T) {
	_, err := NewImagingProcessor().Thumbnail(bytes.NewReader(pngHeader(20000, 20000)))
	require.ErrorIs(t, err, ErrTooManyPixels)
	assert.Contains(t, err.Error(), "20000x20000")
}

func TestThumbnail_InvalidImage(t *testing.T) {
	_, err := NewImagingProcessor().Thumbnail(strings.NewReader("not an image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
