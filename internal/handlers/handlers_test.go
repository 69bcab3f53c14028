package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/docforensics/internal/forensics"
	"github.com/example/docforensics/internal/imageprocessor"
	"github.com/example/docforensics/internal/logging"
	"github.com/example/docforensics/internal/usecase"
)

type stubAnalyzer struct {
	report     *forensics.Report
	err        error
	panicValue any
	images     []string
	requestIDs []string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, requestID, documentImage string) (*forensics.Report, error) {
	if s.panicValue != nil {
		panic(s.panicValue)
	}
	s.images = append(s.images, documentImage)
	s.requestIDs = append(s.requestIDs, requestID)
	return s.report, s.err
}

func newTestRouter(analyzer Analyzer, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(analyzer, zap.NewNop(), opts)
}

func newSeededUseCase() *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(
		imageprocessor.NewSimulatedExtractor(imageprocessor.SeededRand(21, 12)),
		zap.NewNop(),
		usecase.WithRand(imageprocessor.SeededRand(4, 8)),
	)
}

func postAnalyze(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, AnalyzePath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	return body
}

func TestHealthCheck(t *testing.T) {
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	router := newTestRouter(&stubAnalyzer{}, Options{Now: func() time.Time { return fixed }})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	require.Equal(t, "ok", body["status"])
	ts, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
	require.NoError(t, err)
	require.True(t, fixed.Equal(ts))
}

func TestHealthCheckUsesCurrentTime(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{}, Options{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	body := decodeBody(t, resp)
	ts, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestAnalyzeJPEGDataURI(t *testing.T) {
	router := newTestRouter(newSeededUseCase(), Options{})

	resp := postAnalyze(router, `{"documentImage":"data:image/jpeg;base64,/9j/4AAQSkZJRgABAQAAAQABAAD..."}`)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decodeBody(t, resp)
	require.Equal(t, "success", body["status"])
	require.Equal(t, map[string]any{"width": 1000.0, "height": 650.0}, body["documentDimensions"])

	results := body["results"].(map[string]any)
	require.Equal(t, true, results["document_detected"])
	score := results["overall_authenticity"].(float64)
	require.Equal(t, score, float64(int(score)))
	require.GreaterOrEqual(t, score, 0.0)
	require.LessOrEqual(t, score, 100.0)
	for _, key := range []string{"mrz_detected", "mrz_confidence", "uv_features_detected", "alterations_detected", "alterations_confidence"} {
		require.Contains(t, results, key)
	}
	require.NotEmpty(t, resp.Header().Get(RequestIDHeader))
}

func TestAnalyzeResultsStayInRange(t *testing.T) {
	router := newTestRouter(usecase.NewAnalysisUseCase(imageprocessor.NewSimulatedExtractor(nil), zap.NewNop()), Options{})

	for i := 0; i < 200; i++ {
		resp := postAnalyze(router, `{"documentImage":"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="}`)
		require.Equal(t, http.StatusOK, resp.Code)

		var parsed analysisResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &parsed))
		require.Equal(t, "success", parsed.Status)
		require.GreaterOrEqual(t, parsed.Results.OverallAuthenticity, 0)
		require.LessOrEqual(t, parsed.Results.OverallAuthenticity, 100)
	}
}

func TestAnalyzePrefixDoesNotChangeResult(t *testing.T) {
	const payload = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

	raw := postAnalyze(newTestRouter(newSeededUseCase(), Options{}), `{"documentImage":"`+payload+`"}`)
	prefixed := postAnalyze(newTestRouter(newSeededUseCase(), Options{}), `{"documentImage":"data:image/png;base64,`+payload+`"}`)

	require.Equal(t, http.StatusOK, raw.Code)
	require.JSONEq(t, raw.Body.String(), prefixed.Body.String())
}

func TestAnalyzeRejectsMissingImage(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := newTestRouter(analyzer, Options{})

	bodies := map[string]string{
		"empty object":   `{}`,
		"empty body":     ``,
		"invalid json":   `{"documentImage":`,
		"null image":     `{"documentImage":null}`,
		"non-string":     `{"documentImage":42}`,
		"wrong field":    `{"image":"aGVsbG8="}`,
		"top-level list": `["aGVsbG8="]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			resp := postAnalyze(router, body)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			parsed := decodeBody(t, resp)
			require.Equal(t, "error", parsed["status"])
			require.Contains(t, parsed["message"], "base64")
		})
	}
	require.Empty(t, analyzer.images)
}

func TestAnalyzeRejectsEmptyPayloadAfterPrefix(t *testing.T) {
	router := newTestRouter(newSeededUseCase(), Options{})

	for _, body := range []string{`{"documentImage":""}`, `{"documentImage":"data:image/png;base64,"}`} {
		resp := postAnalyze(router, body)
		require.Equal(t, http.StatusBadRequest, resp.Code, body)
		require.Equal(t, "a base64 document image is required", decodeBody(t, resp)["message"])
	}
}

func TestAnalyzeProcessingError(t *testing.T) {
	analyzer := &stubAnalyzer{err: logging.NewOperationError("extractor.extract", "req", errors.New("corrupt image"))}
	router := newTestRouter(analyzer, Options{})

	resp := postAnalyze(router, `{"documentImage":"aGVsbG8="}`)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	body := decodeBody(t, resp)
	require.Equal(t, "error", body["status"])
	require.Equal(t, "error processing image: corrupt image", body["message"])
}

func TestAnalyzeTimeoutMapsToGatewayTimeout(t *testing.T) {
	analyzer := &stubAnalyzer{err: logging.NewOperationError("extractor.extract", "req", context.DeadlineExceeded)}
	router := newTestRouter(analyzer, Options{})

	resp := postAnalyze(router, `{"documentImage":"aGVsbG8="}`)

	require.Equal(t, http.StatusGatewayTimeout, resp.Code)
	require.Equal(t, "error", decodeBody(t, resp)["status"])
}

func TestAnalyzePanicIsRecovered(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{panicValue: "nil map write"}, Options{})

	resp := postAnalyze(router, `{"documentImage":"aGVsbG8="}`)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	body := decodeBody(t, resp)
	require.Equal(t, "error", body["status"])
	require.Equal(t, "internal server error", body["message"])
	require.NotContains(t, resp.Body.String(), "goroutine")
}

func TestAnalyzeRejectsOversizedBody(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := newTestRouter(analyzer, Options{MaxRequestBytes: 64})

	payload := `{"documentImage":"` + strings.Repeat("A", 128) + `"}`
	resp := postAnalyze(router, payload)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

	// Without a declared length the limit is enforced while reading.
	req := httptest.NewRequest(http.MethodPost, AnalyzePath, bytes.NewBufferString(payload))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Empty(t, analyzer.images)
}

func TestRequestIDIsPropagated(t *testing.T) {
	analyzer := &stubAnalyzer{report: forensics.NewReport(forensics.Signals{DocumentDetected: true}, 30)}
	router := newTestRouter(analyzer, Options{})

	req := httptest.NewRequest(http.MethodPost, AnalyzePath, strings.NewReader(`{"documentImage":"aGVsbG8="}`))
	req.Header.Set(RequestIDHeader, "trace-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "trace-123", resp.Header().Get(RequestIDHeader))
	require.Equal(t, []string{"trace-123"}, analyzer.requestIDs)
	require.Equal(t, []string{"aGVsbG8="}, analyzer.images)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{}, Options{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, "error", decodeBody(t, resp)["status"])

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, AnalyzePath, nil))
	require.Equal(t, http.StatusMethodNotAllowed, resp.Code)
	require.Equal(t, "error", decodeBody(t, resp)["status"])
}
