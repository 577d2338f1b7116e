package usecase

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/github-star-badge/internal/domain"
)

// Summarize computes aggregate statistics over star counts keyed by repository.
func Summarize(counts map[string]int) (*domain.StarSummary, error) {
	summary := &domain.StarSummary{Repos: len(counts)}
	if len(counts) == 0 {
		return summary, nil
	}

	data := make(stats.Float64Data, 0, len(counts))
	for _, c := range counts {
		data = append(data, float64(c))
	}

	total, err := data.Sum()
	if err != nil {
		return nil, fmt.Errorf("failed to sum star counts: %w", err)
	}
	mean, err := data.Mean()
	if err != nil {
		return nil, fmt.Errorf("failed to compute mean star count: %w", err)
	}
	median, err := data.Median()
	if err != nil {
		return nil, fmt.Errorf("failed to compute median star count: %w", err)
	}
	maxCount, err := data.Max()
	if err != nil {
		return nil, fmt.Errorf("failed to compute max star count: %w", err)
	}

	summary.Total = int(total)
	summary.Mean = mean
	summary.Median = median
	summary.Max = int(maxCount)
	return summary, nil
}
