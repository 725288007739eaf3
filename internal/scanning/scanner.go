package scanning

import "context"

// Recognizer defines the interface for page text recognition
type Recognizer interface {
	// RecognizePage takes a preprocessed PNG page image and returns the
	// recognized text with embedded newlines, one per printed line
	RecognizePage(ctx context.Context, pngData []byte) (string, error)
	// Close closes the recognizer and releases resources
	Close() error
}
