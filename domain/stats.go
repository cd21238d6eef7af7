package domain

// StatsRepository counts what the journal holds.
type StatsRepository interface {
	// CountFetches returns the number of recorded fetches.
	CountFetches() (int, error)
	// CountBatches returns the number of recorded batches.
	CountBatches() (int, error)
	// CountAlerts returns the number of ERROR level log entries.
	CountAlerts() (int, error)
	// CountByOutcome returns the number of completed fetches per outcome.
	CountByOutcome() (map[string]int, error)
}
