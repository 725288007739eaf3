package scanning

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Recognizer interface using a local Tesseract
// engine through gosseract
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a new Tesseract Recognizer instance. language is a
// traineddata name ("por", "eng"); psm is the Tesseract page segmentation
// mode (6, a uniform block of text, suits the sparse tables of a debtor
// report); dpi should match the resolution pages were rendered at so
// Tesseract does not guess it from the image.
func NewTesseract(language string, psm int, dpi int) (*Tesseract, error) {
	if language == "" {
		language = "por"
	}

	client := gosseract.NewClient()

	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting page segmentation mode: %w", err)
	}
	if dpi > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(dpi)); err != nil {
			client.Close()
			return nil, fmt.Errorf("setting dpi: %w", err)
		}
	}

	return &Tesseract{client: client}, nil
}

// RecognizePage runs Tesseract over one preprocessed page image. The call
// into the engine is synchronous, so the context is only consulted before
// it starts.
func (t *Tesseract) RecognizePage(ctx context.Context, pngData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := t.client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}

	return text, nil
}

// Close closes the Tesseract client
func (t *Tesseract) Close() error {
	return t.client.Close()
}
