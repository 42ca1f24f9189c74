package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/svoer/FhirConverter/config"
	"github.com/svoer/FhirConverter/terminology"
)

// termsync downloads the French terminology catalog and its CodeSystems into
// a local directory for offline use by downstream FHIR tooling.
func main() {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	client := terminology.NewClient(cfg.TerminologyBaseURL, log)
	if err := client.DownloadAll(context.Background(), cfg.TerminologyDir); err != nil {
		log.Fatal().Err(err).Msg("Failed to download terminologies")
	}
	log.Info().Str("dir", cfg.TerminologyDir).Msg("Terminology download complete")
}
