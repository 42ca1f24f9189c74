package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/svoer/FhirConverter/converter"
	"github.com/svoer/FhirConverter/conversionlog"
	"github.com/svoer/FhirConverter/util"
)

// ConversionHistory is the slice of the conversion-log service the API needs.
type ConversionHistory interface {
	GetLogs(ctx context.Context, page, size int) (*conversionlog.Page, error)
	GetLog(ctx context.Context, id int64) (*conversionlog.ConversionLog, error)
	GetStats(ctx context.Context) *conversionlog.Stats
	Record(ctx context.Context, entry *conversionlog.ConversionLog) error
}

// Router serves the hub's REST surface.
type Router struct {
	conv      *converter.Service
	history   ConversionHistory
	apiKey    string
	inputDir  string
	outputDir string
	log       zerolog.Logger
}

func NewRouter(conv *converter.Service, history ConversionHistory, apiKey, inputDir, outputDir string, log zerolog.Logger) *Router {
	if apiKey == "" {
		log.Warn().Msg("No API key configured, /api endpoints are unprotected")
	}
	return &Router{
		conv:      conv,
		history:   history,
		apiKey:    apiKey,
		inputDir:  inputDir,
		outputDir: outputDir,
		log:       log,
	}
}

// Handler builds the route table.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(rt.logRequest, cors)

	r.HandleFunc("/", rt.handleHome).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rt.requireAPIKey)
	api.HandleFunc("/conversions", rt.handleListConversions).Methods(http.MethodGet)
	api.HandleFunc("/conversions/{id:[0-9]+}", rt.handleGetConversion).Methods(http.MethodGet)
	api.HandleFunc("/stats", rt.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/convert", rt.handleConvert).Methods(http.MethodPost)
	api.HandleFunc("/upload", rt.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/upload-content", rt.handleUploadContent).Methods(http.MethodPost)
	api.HandleFunc("/outputs/{filename}", rt.handleGetOutput).Methods(http.MethodGet)

	return r
}

func (rt *Router) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "fhirhub",
		"status":  "running",
	})
}

func (rt *Router) handleListConversions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	logs, err := rt.history.GetLogs(r.Context(), page, size)
	if err != nil {
		rt.log.Error().Err(err).Msg("Failed to list conversions")
		writeError(w, http.StatusInternalServerError, "Failed to list conversions")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (rt *Router) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid conversion ID")
		return
	}

	entry, err := rt.history.GetLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, conversionlog.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Conversion %d not found", id))
			return
		}
		rt.log.Error().Err(err).Int64("id", id).Msg("Failed to get conversion")
		writeError(w, http.StatusInternalServerError, "Failed to get conversion")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.history.GetStats(r.Context()))
}

type convertRequest struct {
	HL7      string `json:"hl7"`
	Filename string `json:"filename"`
}

func (rt *Router) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HL7 == "" {
		writeError(w, http.StatusBadRequest, "Missing HL7 message in request body")
		return
	}
	filename := req.Filename
	if filename == "" {
		filename = "manual_input_" + uuid.NewString() + ".hl7"
	}

	result := rt.conv.Convert(req.HL7)
	entry := &conversionlog.ConversionLog{
		OriginalFilename: filename,
		Source:           conversionlog.SourceAPI,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMs: util.Int64Ptr(result.ProcessingTime.Milliseconds()),
	}

	if !result.Success {
		entry.Status = conversionlog.StatusError
		entry.ErrorMessage = &result.Error
		rt.record(r.Context(), entry)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Conversion error",
			"message": result.Error,
		})
		return
	}

	outputFilename := outputName(filename)
	data, err := json.MarshalIndent(result, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(rt.outputDir, outputFilename), data, 0o644)
	}
	if err != nil {
		rt.log.Error().Err(err).Msg("Failed to save conversion output")
		writeError(w, http.StatusInternalServerError, "Failed to save conversion output")
		return
	}

	entry.Status = conversionlog.StatusSuccess
	entry.OutputFilename = &outputFilename
	entry.SegmentCount = util.IntPtr(result.SegmentCount)
	rt.record(r.Context(), entry)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Conversion successful",
		"conversionId":   entry.ID,
		"outputFilename": outputFilename,
		"result":         result,
	})
}

func (rt *Router) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file in request")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." {
		filename = "uploaded_file_" + uuid.NewString() + ".hl7"
	}

	dst, err := os.Create(filepath.Join(rt.inputDir, filename))
	if err != nil {
		rt.log.Error().Err(err).Msg("Failed to save uploaded file")
		writeError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		rt.log.Error().Err(err).Msg("Failed to save uploaded file")
		writeError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}

	rt.log.Info().Str("file", filename).Msg("Saved uploaded HL7 file")
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "File uploaded successfully. It will be processed by the file monitor.",
		"filename": filename,
	})
}

type uploadContentRequest struct {
	FileContent string `json:"fileContent"`
	Filename    string `json:"filename"`
}

func (rt *Router) handleUploadContent(w http.ResponseWriter, r *http.Request) {
	var req uploadContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileContent == "" {
		writeError(w, http.StatusBadRequest, "Missing file content in request body")
		return
	}
	filename := filepath.Base(req.Filename)
	if filename == "" || filename == "." {
		filename = "manual_upload_" + uuid.NewString() + ".hl7"
	}

	path := filepath.Join(rt.inputDir, filename)
	if err := os.WriteFile(path, []byte(req.FileContent), 0o644); err != nil {
		rt.log.Error().Err(err).Msg("Failed to save uploaded content")
		writeError(w, http.StatusInternalServerError, "Failed to save uploaded content")
		return
	}

	rt.log.Info().Str("file", filename).Msg("Saved uploaded HL7 content")
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "File uploaded successfully. It will be processed by the file monitor.",
		"filename": filename,
	})
}

func (rt *Router) handleGetOutput(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(mux.Vars(r)["filename"])

	content, err := os.ReadFile(filepath.Join(rt.outputDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "Output file not found: "+filename)
			return
		}
		rt.log.Error().Err(err).Str("file", filename).Msg("Failed to read output file")
		writeError(w, http.StatusInternalServerError, "Failed to read output file")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func (rt *Router) record(ctx context.Context, entry *conversionlog.ConversionLog) {
	if err := rt.history.Record(ctx, entry); err != nil {
		rt.log.Error().Err(err).
			Str("file", entry.OriginalFilename).
			Msg("Failed to record conversion log")
	}
}

func outputName(filename string) string {
	base := filename
	if ext := filepath.Ext(filename); ext != "" {
		base = filename[:len(filename)-len(ext)]
	}
	return base + "_" + uuid.NewString() + ".json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
