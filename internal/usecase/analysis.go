package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/docforensics/internal/forensics"
	"github.com/example/docforensics/internal/imageprocessor"
	"github.com/example/docforensics/internal/logging"
)

// ErrDocumentImageRequired is returned when the request carries no image payload.
var ErrDocumentImageRequired = errors.New("a base64 document image is required")

// DefaultAnalysisTimeout bounds a single extraction when no timeout is configured.
const DefaultAnalysisTimeout = 10 * time.Second

// AnalysisUseCase runs a document image through extraction and scoring.
// It keeps no state between calls.
type AnalysisUseCase struct {
	extractor imageprocessor.Extractor
	newRand   imageprocessor.RandFactory
	timeout   time.Duration
	logger    *zap.Logger
}

// Option customises an AnalysisUseCase.
type Option func(*AnalysisUseCase)

// WithTimeout sets the extraction deadline. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(uc *AnalysisUseCase) {
		if timeout > 0 {
			uc.timeout = timeout
		}
	}
}

// WithRand sets the factory for the per-request scoring jitter source.
func WithRand(newRand imageprocessor.RandFactory) Option {
	return func(uc *AnalysisUseCase) {
		if newRand != nil {
			uc.newRand = newRand
		}
	}
}

// NewAnalysisUseCase constructs a new use case instance.
func NewAnalysisUseCase(extractor imageprocessor.Extractor, logger *zap.Logger, opts ...Option) *AnalysisUseCase {
	uc := &AnalysisUseCase{
		extractor: extractor,
		newRand:   imageprocessor.NewRand,
		timeout:   DefaultAnalysisTimeout,
		logger:    logger.Named("analysis_usecase"),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Analyze decodes the document image, extracts its signals and scores them.
// A requestID is generated when none is supplied.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, requestID, documentImage string) (*forensics.Report, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	opLogger := logging.WithOperation(uc.logger, "usecase.analyze", requestID)

	payload := imageprocessor.DecodePayload(documentImage)
	if payload.Empty() {
		return nil, ErrDocumentImageRequired
	}
	opLogger.Debug("payload decoded",
		zap.Int("encoded_len", len(payload.Encoded)),
		zap.Bool("base64", payload.Decoded),
		zap.String("format", payload.Format),
	)

	signals, err := uc.extract(ctx, requestID, payload.Data)
	if err != nil {
		opLogger.Error("signal extraction failed", zap.Error(err))
		return nil, err
	}

	score := forensics.Score(*signals, uc.newRand())
	opLogger.Info("document analysed",
		zap.Int("overall_authenticity", score),
		zap.Bool("mrz_detected", signals.MRZDetected),
		zap.Bool("alterations_detected", signals.AlterationsDetected),
	)
	return forensics.NewReport(*signals, score), nil
}

// extract runs the extractor under the analysis deadline. Extractor panics are
// returned as errors so a faulty implementation cannot take the process down.
func (uc *AnalysisUseCase) extract(ctx context.Context, requestID string, image []byte) (*forensics.Signals, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	type outcome struct {
		signals *forensics.Signals
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &PanicError{Value: r}}
			}
		}()
		s, err := uc.extractor.Extract(ctx, image)
		done <- outcome{signals: s, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, logging.NewOperationError("extractor.extract", requestID, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, logging.NewOperationError("extractor.extract", requestID, out.err)
		}
		if out.signals == nil {
			return nil, logging.NewOperationError("extractor.extract", requestID, errors.New("extractor returned no signals"))
		}
		return out.signals, nil
	}
}
