package scanning

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"
)

// transcribePrompt is the shared prompt used by the LLM providers for
// transcribing a report page
const transcribePrompt = `You are transcribing one page of a scanned public-debtor report. The page is a sparse table of debtor names, registry codes and owed amounts printed in Brazilian number format (example: 1.234,56).

Transcribe every visible line of text exactly as printed, one output line per printed line, top to bottom. Keep digits, dots and commas exactly as they appear on the page. Do not translate, do not summarize, do not reorder columns, do not add commentary, and do not use markdown. Output the transcription and nothing else.`

// Preprocess converts a rendered page into the black-and-white image the
// recognizers work on: grayscale first, then every pixel darker than the
// given percentage of full luminance goes black and the rest white.
// Returns the result encoded as PNG.
func Preprocess(img image.Image, thresholdPct int) ([]byte, error) {
	if thresholdPct < 0 || thresholdPct > 100 {
		return nil, fmt.Errorf("threshold percentage out of range: %d", thresholdPct)
	}

	gray := imaging.Grayscale(img)
	cut := uint8(255 * thresholdPct / 100)

	bounds := gray.Bounds()
	bw := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// After Grayscale the channels are equal, any one will do
			if gray.NRGBAAt(x, y).R < cut {
				bw.SetGray(x, y, color.Gray{Y: 0})
			} else {
				bw.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, bw); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// decodePageImage decodes a page scan in any supported format
func decodePageImage(data []byte) (image.Image, error) {
	// HEIC/HEIF (common on iPhones) is not covered by Go's standard image
	// package, so sniff for it first
	if isHEICFormat(data) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
			return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF. Error: %w", err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	return img, nil
}

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files typically start with specific magic bytes
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// HEIC files can start with various signatures:
	// - ftyp box with brand 'heic', 'heif', 'mif1', 'msf1'
	// Check for ftyp at offset 4
	if string(data[4:8]) == "ftyp" {
		// Check for HEIC-related brands
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// stripCodeFence removes a wrapping markdown code fence from an LLM reply.
// The vision models are told not to use markdown but do it anyway often
// enough to matter.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, it may carry a language tag
	if idx := strings.Index(text, "\n"); idx != -1 {
		text = text[idx+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}

	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
