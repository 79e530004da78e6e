package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/babelgate/pkg/pipeline"
	"github.com/dasmlab/babelgate/pkg/service"
)

//go:embed static
var staticFiles embed.FS

// maxUploadBytes bounds multipart CSV uploads.
const maxUploadBytes = 32 << 20

// Processor runs a single chat message through the pipeline.
type Processor interface {
	Process(ctx context.Context, text string) pipeline.Result
}

// CSVProcessor handles uploaded CSV files.
type CSVProcessor interface {
	ProcessCSV(ctx context.Context, r io.Reader, sourceName string) (*service.CSVResult, error)
}

// HTTPServer exposes the chat pipeline, CSV processing, health and metrics.
type HTTPServer struct {
	processor Processor
	csv       CSVProcessor
	logger    *logrus.Logger
	port      int
	srv       *http.Server
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(processor Processor, csv CSVProcessor, logger *logrus.Logger, port int) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	s := &HTTPServer{
		processor: processor,
		csv:       csv,
		logger:    logger,
		port:      port,
	}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the routed handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/process", s.handleProcess)
	mux.HandleFunc("/process_csv", s.handleProcessCSV)

	// Health check endpoint
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Chat page
	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("/", http.FileServer(http.FS(static)))

	return s.withRequestID(mux)
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port": s.port,
	}).Info("Starting HTTP server")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve serves on an existing listener.
func (s *HTTPServer) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// withRequestID tags every request with an ID for logs and the response.
func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(pipeline.WithRequestID(r.Context(), id)))
	})
}

type processRequest struct {
	Text string `json:"text"`
}

type processResponse struct {
	Response string `json:"response"`
}

// handleProcess answers POST /process {"text": ...} with {"response": ...}.
func (s *HTTPServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		sendJSONError(w, http.StatusBadRequest, "No text provided")
		return
	}

	result := s.processor.Process(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, processResponse{Response: result.Reply})
}

type processCSVResponse struct {
	OutputFile string `json:"output_file"`
	Rows       int    `json:"rows"`
	Message    string `json:"message"`
}

// handleProcessCSV answers a multipart upload (field "file") with the path
// of the processed CSV.
func (s *HTTPServer) handleProcessCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if filepath.Ext(header.Filename) != ".csv" {
		sendJSONError(w, http.StatusBadRequest, "File must be a .csv")
		return
	}

	result, err := s.csv.ProcessCSV(r.Context(), file, header.Filename)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": pipeline.RequestID(r.Context()),
			"file":       header.Filename,
		}).Warn("CSV processing failed")
		sendJSONError(w, http.StatusBadRequest, fmt.Sprintf("Failed to process CSV: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, processCSVResponse{
		OutputFile: result.OutputFile,
		Rows:       result.Rows,
		Message:    fmt.Sprintf("Processed %d rows, saved as %s", result.Rows, result.OutputFile),
	})
}

// handleHealth provides a health check endpoint.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
