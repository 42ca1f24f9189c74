package converter

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/svoer/FhirConverter/hl7"
)

// Result is the outcome envelope of one conversion. Its JSON shape is the
// legacy parser-service contract consumed by downstream tooling, so field
// names and presence rules are fixed: data and patientInfo appear only on
// success, error and stackTrace only on failure.
type Result struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Data        *hl7.Message       `json:"data,omitempty"`
	Error       string             `json:"error,omitempty"`
	StackTrace  string             `json:"stackTrace,omitempty"`
	PatientInfo *hl7.PatientRecord `json:"patientInfo,omitempty"`

	// Bookkeeping for the conversion log, not part of the envelope.
	SegmentCount   int           `json:"-"`
	ProcessingTime time.Duration `json:"-"`
}

// Service turns raw HL7 messages into Result envelopes. It is stateless and
// safe for concurrent use.
type Service struct {
	log zerolog.Logger
}

func NewService(log zerolog.Logger) *Service {
	return &Service{log: log}
}

// Convert parses the raw message and, when parsing succeeds, extracts the
// patient demographics. Extraction failure is not a conversion failure: a
// message without a PID segment still converts, just without patientInfo.
func (s *Service) Convert(raw string) *Result {
	start := time.Now()

	msg, err := hl7.Parse(raw)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to parse HL7 message")
		result := &Result{
			Success:        false,
			Message:        "Failed to parse HL7 message: " + err.Error(),
			Error:          err.Error(),
			ProcessingTime: time.Since(start),
		}
		var hl7Err *hl7.Error
		if errors.As(err, &hl7Err) {
			result.StackTrace = hl7Err.Trace
		}
		return result
	}

	result := &Result{
		Success:        true,
		Message:        "HL7 message parsed successfully",
		Data:           msg,
		SegmentCount:   len(msg.Segments),
		ProcessingTime: time.Since(start),
	}

	patient, err := hl7.ExtractPatient(msg)
	if err != nil {
		s.log.Warn().Err(err).
			Str("messageControlId", msg.Info.MessageControlID).
			Msg("Parsed HL7 message has no extractable patient")
	} else {
		result.PatientInfo = patient
	}

	result.ProcessingTime = time.Since(start)
	return result
}

// FailIO builds the envelope for input that could not be read at all, kept
// distinct from parse failures so callers can tell the two apart.
func FailIO(err error) *Result {
	return &Result{
		Success: false,
		Message: "Failed to read HL7 input: " + err.Error(),
		Error:   err.Error(),
	}
}
