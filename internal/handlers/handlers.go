package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/docforensics/internal/forensics"
	"github.com/example/docforensics/internal/logging"
	"github.com/example/docforensics/internal/usecase"
)

// AnalyzePath is the route of the document analysis endpoint.
const AnalyzePath = "/api/document-forensics/analyze"

// DefaultMaxRequestBytes caps analysis request bodies when no limit is configured.
const DefaultMaxRequestBytes = 20 << 20

const (
	statusOK      = "ok"
	statusSuccess = "success"
	statusError   = "error"
)

// Analyzer runs a forensic analysis of a document image.
type Analyzer interface {
	Analyze(ctx context.Context, requestID, documentImage string) (*forensics.Report, error)
}

type analyzeRequest struct {
	DocumentImage *string `json:"documentImage"`
}

type analysisResponse struct {
	Status             string               `json:"status"`
	Message            string               `json:"message"`
	DocumentDimensions forensics.Dimensions `json:"documentDimensions"`
	Results            forensics.Results    `json:"results"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Options tune the registered handlers.
type Options struct {
	MaxRequestBytes int64
	Now             func() time.Time
}

// NewRouter builds a gin engine with request ids, access logging, panic
// recovery and the forensics routes.
func NewRouter(analyzer Analyzer, logger *zap.Logger, opts Options) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(RequestID(), AccessLog(logger), Recovery(logger))
	RegisterRoutes(router, analyzer, logger, opts)
	return router
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, analyzer Analyzer, logger *zap.Logger, opts Options) {
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = DefaultMaxRequestBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger = logger.Named("handlers")

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		respondError(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse{
			Status:    statusOK,
			Timestamp: opts.Now().Format(time.RFC3339Nano),
		})
	})

	router.POST(AnalyzePath, BodyLimit(opts.MaxRequestBytes), func(c *gin.Context) {
		requestID := RequestIDFrom(c)
		opLogger := logging.WithOperation(logger, "handlers.analyze", requestID)

		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, http.StatusRequestEntityTooLarge, "document image exceeds the request size limit")
				return
			}
			opLogger.Debug("rejected analysis request", zap.Error(err))
			respondError(c, http.StatusBadRequest, usecase.ErrDocumentImageRequired.Error())
			return
		}
		if req.DocumentImage == nil {
			respondError(c, http.StatusBadRequest, usecase.ErrDocumentImageRequired.Error())
			return
		}

		report, err := analyzer.Analyze(c.Request.Context(), requestID, *req.DocumentImage)
		if err != nil {
			status, message := classifyError(err)
			if status >= http.StatusInternalServerError {
				opLogger.Error("document analysis failed",
					zap.Error(err),
					zap.String("failed_operation", logging.OperationOf(err)),
					zap.Int("status", status),
				)
			}
			respondError(c, status, message)
			return
		}

		c.JSON(http.StatusOK, analysisResponse{
			Status:             statusSuccess,
			Message:            "forensic analysis completed",
			DocumentDimensions: report.Dimensions,
			Results:            report.Results,
		})
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrDocumentImageRequired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "document analysis timed out"
	default:
		return http.StatusInternalServerError, "error processing image: " + logging.Cause(err).Error()
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Status: statusError, Message: message})
}
