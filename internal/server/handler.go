package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "resumegap/internal/errors"
	"resumegap/internal/observability"
	"resumegap/internal/types"
)

const (
	resumeField = "resume"
	jobURLField = "job_url"

	multipartMemory = 8 << 20
)

// analyzeHandler runs the pipeline on a multipart upload. The body is always
// an AnalysisResult: 200 on success, 422 when the document or listing could
// not be used, 502 when generation failed.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, span := s.om.Tracer("resumegap.api").Start(r.Context(), "api.analyze")
	defer span.End()

	upload, err := readUpload(r)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeUploadError(w, err)
		return
	}
	jobURL := strings.TrimSpace(r.FormValue(jobURLField))

	span.SetAttributes(
		attribute.String("request.id", requestIDFrom(ctx)),
		attribute.String("request.file_name", upload.name),
		attribute.Int("request.file_size", len(upload.data)),
		attribute.String("request.job_url", jobURL),
	)

	state, err := s.analyzer.Analyze(ctx, upload.name, upload.data, jobURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeJSON(w, analysisStatus(err), types.AnalysisResult{Error: apperrors.UserMessage(err)})
		return
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("document.type", state.FileType),
		attribute.Int("response.resume_length", len(state.UpdatedResume)),
	)
	writeJSON(w, http.StatusOK, types.AnalysisResult{UpdatedResume: state.UpdatedResume})
}

// extractHandler returns the text and formatting of an uploaded document.
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, span := s.om.Tracer("resumegap.api").Start(r.Context(), "api.extract")
	defer span.End()

	upload, err := readUpload(r)
	if err != nil {
		span.RecordError(err)
		writeUploadError(w, err)
		return
	}

	result, err := s.extractor.Extract(ctx, upload.name, upload.data)
	fileType := ""
	if result != nil {
		fileType = result.FileType
	}
	s.om.RecordBusinessMetric(ctx, observability.MetricDocumentExtracted, err == nil,
		attribute.String("file_type", fileType))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.Logger.LogError(err, "Extraction failed", "file", upload.name, "request_id", requestIDFrom(ctx))
		writeJSON(w, http.StatusUnprocessableEntity, types.AnalysisResult{Error: apperrors.UserMessage(err)})
		return
	}

	span.SetAttributes(
		attribute.String("document.type", result.FileType),
		attribute.Int("document.segments", len(result.Formatting)),
	)
	writeJSON(w, http.StatusOK, result)
}

type upload struct {
	name string
	data []byte
}

var errMissingResume = errors.New("missing resume file")

// readUpload reads the resume part of a multipart request.
func readUpload(r *http.Request) (*upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}
	file, header, err := r.FormFile(resumeField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errMissingResume
		}
		return nil, fmt.Errorf("invalid resume part: %w", err)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}
	return &upload{name: header.Filename, data: data}, nil
}

func writeUploadError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		writeErrorResponse(w, "Request too large",
			fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
	case errors.Is(err, errMissingResume):
		writeErrorResponse(w, "Missing resume file", "multipart field 'resume' is required", http.StatusBadRequest)
	default:
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
	}
}

func analysisStatus(err error) int {
	if apperrors.IsType(err, apperrors.ErrorTypeExtraction) || apperrors.IsType(err, apperrors.ErrorTypeFetch) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}
