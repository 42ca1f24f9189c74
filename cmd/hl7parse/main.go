package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/svoer/FhirConverter/converter"
)

// hl7parse reads one raw HL7 v2.x message from a file argument or stdin and
// prints the structured conversion envelope to stdout. Failure is reported
// inside the envelope (success:false); the exit status stays 0 as long as
// the envelope itself could be written.
func main() {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })).
		With().Timestamp().Logger()

	conv := converter.NewService(log)

	var result *converter.Result
	raw, err := readInput()
	if err != nil {
		result = converter.FailIO(err)
	} else {
		result = conv.Convert(raw)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(result); err != nil {
		log.Error().Err(err).Msg("Failed to write result")
		os.Exit(1)
	}
}

func readInput() (string, error) {
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
