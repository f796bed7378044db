package fileproc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrUnsupportedFormat: the content is neither a page-description document
// nor a raster image.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// MeasurementError: the format was recognized but dimensions could not be
// extracted (e.g. corrupt content). Fatal for that single file.
type MeasurementError struct {
	File string
	Err  error
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("could not measure %q: %v", e.File, e.Err)
}

func (e *MeasurementError) Unwrap() error { return e.Err }

const (
	cmPerInch       = 2.54
	pdfUnitsPerInch = 72.0
	defaultDpi      = 300.0
)

// AttachmentMetrics is the physical measurement of one artwork file.
type AttachmentMetrics struct {
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
	AreaCm2  float64 `json:"area_cm2"`
	LengthCm float64 `json:"length_cm"`
}

// CalculateAttachmentMetrics measures how much printable material a file
// consumes: physical width/height, total area, and the run length on a
// roll of the given material width.
//
// Pure and deterministic for identical bytes and override: the aggregate
// recompute relies on that to stay idempotent.
func CalculateAttachmentMetrics(data []byte, originalName, mimeType string, materialWidthCm *float64) (*AttachmentMetrics, error) {
	switch {
	case isPdf(data, originalName, mimeType):
		return measurePdf(data, originalName, materialWidthCm)
	case isRasterImage(data, originalName, mimeType):
		return measureRaster(data, originalName, materialWidthCm)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func isPdf(data []byte, originalName, mimeType string) bool {
	if strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf") {
		return true
	}
	if strings.EqualFold(filepath.Ext(originalName), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func isRasterImage(data []byte, originalName, mimeType string) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(originalName)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return sniffPng(data) || sniffJpeg(data)
}

// measurePdf sums w*h over all pages and runs the result down a roll of
// the effective width. When no width is known the raw area doubles as the
// length; that fallback only avoids a division by zero, downstream
// consumers depend on the exact value.
func measurePdf(data []byte, originalName string, materialWidthCm *float64) (*AttachmentMetrics, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &MeasurementError{File: originalName, Err: err}
	}
	if len(dims) == 0 {
		return nil, &MeasurementError{File: originalName, Err: errors.New("document has no pages")}
	}

	var areaCm2, maxPageWidthCm, totalHeightCm float64
	for _, dim := range dims {
		wCm := dim.Width / pdfUnitsPerInch * cmPerInch
		hCm := dim.Height / pdfUnitsPerInch * cmPerInch
		areaCm2 += wCm * hCm
		totalHeightCm += hCm
		if wCm > maxPageWidthCm {
			maxPageWidthCm = wCm
		}
	}

	effectiveWidthCm := maxPageWidthCm
	if materialWidthCm != nil && *materialWidthCm > 0 {
		effectiveWidthCm = *materialWidthCm
	}

	lengthCm := areaCm2
	if effectiveWidthCm > 0 {
		lengthCm = areaCm2 / effectiveWidthCm
	}

	return &AttachmentMetrics{
		WidthCm:  maxPageWidthCm,
		HeightCm: totalHeightCm,
		AreaCm2:  areaCm2,
		LengthCm: lengthCm,
	}, nil
}

// measureRaster converts pixel dimensions to physical size via the
// embedded resolution, assuming defaultDpi when none is present. When the
// effective width is 0 the raw height stands in for the run length (same
// division-by-zero guard as the document path).
func measureRaster(data []byte, originalName string, materialWidthCm *float64) (*AttachmentMetrics, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &MeasurementError{File: originalName, Err: err}
	}
	bounds := img.Bounds()
	pxWidth := float64(bounds.Dx())
	pxHeight := float64(bounds.Dy())

	dpi := embeddedDpi(data)
	if dpi <= 0 {
		dpi = defaultDpi
	}

	widthCm := pxWidth / dpi * cmPerInch
	heightCm := pxHeight / dpi * cmPerInch
	areaCm2 := widthCm * heightCm

	effectiveWidthCm := widthCm
	if materialWidthCm != nil && *materialWidthCm > 0 {
		effectiveWidthCm = *materialWidthCm
	}

	lengthCm := heightCm
	if effectiveWidthCm > 0 {
		lengthCm = areaCm2 / effectiveWidthCm
	}

	return &AttachmentMetrics{
		WidthCm:  widthCm,
		HeightCm: heightCm,
		AreaCm2:  areaCm2,
		LengthCm: lengthCm,
	}, nil
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func sniffPng(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

func sniffJpeg(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8
}

// embeddedDpi extracts the horizontal resolution a file declares about
// itself: the PNG pHYs chunk or the JPEG JFIF APP0 density. Returns 0 when
// none is embedded.
func embeddedDpi(data []byte) float64 {
	if sniffPng(data) {
		return pngDpi(data)
	}
	if sniffJpeg(data) {
		return jfifDpi(data)
	}
	return 0
}

// pngDpi walks PNG chunks looking for pHYs. Unit 1 means pixels per meter.
func pngDpi(data []byte) float64 {
	offset := len(pngSignature)
	for offset+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		chunkType := string(data[offset+4 : offset+8])
		dataStart := offset + 8
		if dataStart+length > len(data) {
			return 0
		}
		if chunkType == "pHYs" && length >= 9 {
			ppuX := binary.BigEndian.Uint32(data[dataStart : dataStart+4])
			unit := data[dataStart+8]
			if unit == 1 && ppuX > 0 {
				// pixels per meter -> dots per inch
				return float64(ppuX) * 0.0254
			}
			return 0
		}
		if chunkType == "IEND" {
			return 0
		}
		// chunk data + 4-byte CRC
		offset = dataStart + length + 4
	}
	return 0
}

// jfifDpi walks JPEG markers looking for the APP0 JFIF segment.
// Density unit 1 is dots per inch, 2 is dots per centimeter, 0 carries no
// physical meaning (aspect ratio only).
func jfifDpi(data []byte) float64 {
	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != 0xFF {
			return 0
		}
		marker := data[offset+1]
		// standalone markers carry no length
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD9) {
			offset += 2
			continue
		}
		segLen := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		if segLen < 2 || offset+2+segLen > len(data) {
			return 0
		}
		if marker == 0xE0 && segLen >= 16 {
			seg := data[offset+4 : offset+2+segLen]
			if bytes.HasPrefix(seg, []byte("JFIF\x00")) {
				unit := seg[7]
				xDensity := binary.BigEndian.Uint16(seg[8:10])
				switch {
				case unit == 1 && xDensity > 0:
					return float64(xDensity)
				case unit == 2 && xDensity > 0:
					return float64(xDensity) * cmPerInch
				}
				return 0
			}
		}
		// scan data begins after SOS; no density beyond this point
		if marker == 0xDA {
			return 0
		}
		offset += 2 + segLen
	}
	return 0
}
