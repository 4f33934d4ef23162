package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/DukeRupert/sparkwise/internal/domain"
	"github.com/disintegration/imaging"
)

// MaxPhotoPixels bounds the decoded size of a site photo. A 20MB upload can
// otherwise claim dimensions that take gigabytes to decode.
const MaxPhotoPixels = 50_000_000

// ErrTooManyPixels is returned for photos larger than MaxPhotoPixels.
var ErrTooManyPixels = errors.New("photo dimensions exceed limit")

// Thumbnail is a photo resized for embedding in a certificate.
type Thumbnail struct {
	JPEG         []byte
	SourceWidth  int
	SourceHeight int
}

// ThumbnailProcessor resizes site photos for certificates.
type ThumbnailProcessor interface {
	Thumbnail(r io.Reader) (*Thumbnail, error)
}

type imagingProcessor struct {
	maxWidth, maxHeight int
	quality             int
}

// NewImagingProcessor returns a processor that fits photos within the
// certificate's photo box.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{
		maxWidth:  domain.ThumbnailMaxWidth,
		maxHeight: domain.ThumbnailMaxHeight,
		quality:   domain.ThumbnailJPEGQuality,
	}
}

// Thumbnail checks the photo's header dimensions before decoding it, applies
// EXIF orientation and fits it within the box without scaling up.
// Transparent areas are flattened onto the certificate's white background.
func (p *imagingProcessor) Thumbnail(r io.Reader) (*Thumbnail, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode photo header: %w", err)
	}
	if cfg.Width*cfg.Height > MaxPhotoPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > p.maxWidth || b.Dy() > p.maxHeight {
		img = imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
	}
	flat := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Thumbnail{JPEG: buf.Bytes(), SourceWidth: b.Dx(), SourceHeight: b.Dy()}, nil
}
