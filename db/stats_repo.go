package db

import (
	"fmt"

	"github.com/tfkr-ae/mirsal/domain"
)

var _ domain.StatsRepository = (*Repository)(nil)

// CountFetches returns the total number of recorded fetches.
func (repo *Repository) CountFetches() (int, error) {
	var count int
	if err := repo.dbConn.Get(&count, `SELECT COUNT(*) FROM fetches`); err != nil {
		return 0, fmt.Errorf("getting fetch count: %w", err)
	}
	return count, nil
}

// CountBatches returns the total number of recorded batches.
func (repo *Repository) CountBatches() (int, error) {
	var count int
	if err := repo.dbConn.Get(&count, `SELECT COUNT(*) FROM batches`); err != nil {
		return 0, fmt.Errorf("getting batch count: %w", err)
	}
	return count, nil
}

// CountAlerts returns the number of ERROR log entries. Every raised alert writes one.
func (repo *Repository) CountAlerts() (int, error) {
	var count int
	if err := repo.dbConn.Get(&count, `SELECT COUNT(*) FROM logs WHERE level = 'ERROR'`); err != nil {
		return 0, fmt.Errorf("getting alert count: %w", err)
	}
	return count, nil
}

// CountByOutcome returns the number of completed fetches per outcome.
func (repo *Repository) CountByOutcome() (map[string]int, error) {
	var rows []struct {
		Outcome string `db:"outcome"`
		Count   int    `db:"count"`
	}
	query := `SELECT outcome, COUNT(*) AS count
	          FROM fetches
	          WHERE outcome IS NOT NULL
	          GROUP BY outcome`
	if err := repo.dbConn.Select(&rows, query); err != nil {
		return nil, fmt.Errorf("getting outcome counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Count
	}
	return counts, nil
}
