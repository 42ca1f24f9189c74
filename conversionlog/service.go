package conversionlog

import (
	"context"

	"github.com/rs/zerolog"
)

// Service exposes the conversion history with page-number semantics on top
// of the repository's offset/limit interface.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

const defaultPageSize = 10

// GetLogs returns page (0-based) of the conversion history.
func (s *Service) GetLogs(ctx context.Context, page, size int) (*Page, error) {
	if size <= 0 {
		size = defaultPageSize
	}
	if page < 0 {
		page = 0
	}

	logs, total, err := s.repo.List(ctx, page*size, size)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / size
	if int(total)%size != 0 {
		totalPages++
	}
	return &Page{
		Data:        logs,
		CurrentPage: page,
		TotalItems:  total,
		TotalPages:  totalPages,
	}, nil
}

// GetLog returns one conversion log by ID.
func (s *Service) GetLog(ctx context.Context, id int64) (*ConversionLog, error) {
	return s.repo.Get(ctx, id)
}

// GetStats returns the aggregate conversion statistics. Aggregation failure
// degrades to zeroed stats so the dashboard endpoint never hard-fails.
func (s *Service) GetStats(ctx context.Context) *Stats {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to aggregate conversion statistics")
		return &Stats{SuccessRate: "0%"}
	}
	return stats
}

// Record persists a finished conversion.
func (s *Service) Record(ctx context.Context, entry *ConversionLog) error {
	return s.repo.Save(ctx, entry)
}
