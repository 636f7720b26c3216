package plan

// detailBatchSize is the remote API's per-call ceiling on detail lookups.
// Call savings are expressed in avoided detail batches of this size.
const detailBatchSize = 50

// RunStats accumulates quota accounting across all channels of one run.
type RunStats struct {
	ItemsFetched          int
	ItemsSkippedDuplicate int
	ItemsCapped           int
	EstimatedCallsSaved   int
}

// Merge folds another stats block into this one.
func (s *RunStats) Merge(other RunStats) {
	s.ItemsFetched += other.ItemsFetched
	s.ItemsSkippedDuplicate += other.ItemsSkippedDuplicate
	s.ItemsCapped += other.ItemsCapped
	s.EstimatedCallsSaved += other.EstimatedCallsSaved
}

// callsSaved converts a count of skipped duplicate items into the number of
// remote detail calls a full re-fetch would have spent on them.
func callsSaved(duplicates int) int {
	if duplicates <= 0 {
		return 0
	}
	return (duplicates + detailBatchSize - 1) / detailBatchSize
}
