package imageprocessor

import (
	"context"

	"github.com/example/docforensics/internal/forensics"
)

// Extractor turns document image bytes into forensic signals.
// Implementations must keep the field set and value ranges of forensics.Signals.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (*forensics.Signals, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, image []byte) (*forensics.Signals, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, image []byte) (*forensics.Signals, error) {
	return f(ctx, image)
}
