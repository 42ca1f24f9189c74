package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/svoer/FhirConverter/converter"
	"github.com/svoer/FhirConverter/conversionlog"
	"github.com/svoer/FhirConverter/util"
)

// LogStore persists finished conversions.
type LogStore interface {
	Record(ctx context.Context, entry *conversionlog.ConversionLog) error
}

// Config holds the directory-watching settings.
type Config struct {
	InputDir       string
	OutputDir      string
	Interval       time.Duration
	FileExtensions []string
}

// Service polls the input directory for HL7 files, converts each one, writes
// the structured JSON document to the output directory and records the
// outcome. Processed input files are deleted.
type Service struct {
	cfg   Config
	conv  *converter.Service
	store LogStore
	log   zerolog.Logger
}

func NewService(cfg Config, conv *converter.Service, store LogStore, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create input directory: %w", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if len(cfg.FileExtensions) == 0 {
		cfg.FileExtensions = []string{".hl7", ".txt"}
	}
	return &Service{cfg: cfg, conv: conv, store: store, log: log}, nil
}

// Run scans the input directory on every tick until the context is canceled.
func (s *Service) Run(ctx context.Context) {
	s.log.Info().
		Str("inputDir", s.cfg.InputDir).
		Str("outputDir", s.cfg.OutputDir).
		Dur("interval", s.cfg.Interval).
		Msg("File monitor started")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("File monitor stopped")
			return
		case <-ticker.C:
			if err := s.Scan(ctx); err != nil {
				s.log.Error().Err(err).Msg("Failed to scan input directory")
			}
		}
	}
}

// Scan processes every eligible file currently in the input directory.
func (s *Service) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(s.cfg.InputDir)
	if err != nil {
		return fmt.Errorf("failed to read input directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !s.allowed(entry.Name()) {
			continue
		}
		s.processFile(ctx, entry.Name())
	}
	return nil
}

func (s *Service) allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return slices.Contains(s.cfg.FileExtensions, ext)
}

func (s *Service) processFile(ctx context.Context, filename string) {
	s.log.Info().Str("file", filename).Msg("Processing HL7 file")

	inputPath := filepath.Join(s.cfg.InputDir, filename)
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		s.log.Error().Err(err).Str("file", filename).Msg("Failed to read HL7 file")
		s.recordEntry(ctx, &conversionlog.ConversionLog{
			OriginalFilename: filename,
			Status:           conversionlog.StatusError,
			ErrorMessage:     util.StringPtr("I/O error: " + err.Error()),
			Source:           conversionlog.SourceFileMonitor,
			Timestamp:        time.Now().UTC(),
		})
		return
	}

	result := s.conv.Convert(string(raw))
	entry := &conversionlog.ConversionLog{
		OriginalFilename: filename,
		Source:           conversionlog.SourceFileMonitor,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMs: util.Int64Ptr(result.ProcessingTime.Milliseconds()),
	}

	if result.Success {
		outputFilename, err := s.writeOutput(filename, result)
		if err != nil {
			s.log.Error().Err(err).Str("file", filename).Msg("Failed to write conversion output")
			entry.Status = conversionlog.StatusError
			entry.ErrorMessage = util.StringPtr(err.Error())
		} else {
			entry.Status = conversionlog.StatusSuccess
			entry.OutputFilename = &outputFilename
			entry.SegmentCount = util.IntPtr(result.SegmentCount)
			s.log.Info().
				Str("file", filename).
				Str("output", outputFilename).
				Msg("Converted HL7 file")
		}
	} else {
		entry.Status = conversionlog.StatusError
		entry.ErrorMessage = util.StringPtr(result.Error)
		s.log.Error().
			Str("file", filename).
			Str("error", result.Error).
			Msg("Failed to convert HL7 file")
	}

	s.recordEntry(ctx, entry)

	if err := os.Remove(inputPath); err != nil {
		s.log.Error().Err(err).Str("file", filename).Msg("Failed to remove processed file")
	}
}

func (s *Service) writeOutput(filename string, result *converter.Result) (string, error) {
	outputFilename := outputName(filename)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversion result: %w", err)
	}
	outputPath := filepath.Join(s.cfg.OutputDir, outputFilename)
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write conversion output: %w", err)
	}
	return outputFilename, nil
}

// outputName derives a unique output filename from the input one.
func outputName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return fmt.Sprintf("%s_%s.json", base, uuid.NewString())
}

func (s *Service) recordEntry(ctx context.Context, entry *conversionlog.ConversionLog) {
	if err := s.store.Record(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("file", entry.OriginalFilename).
			Msg("Failed to record conversion log")
	}
}
