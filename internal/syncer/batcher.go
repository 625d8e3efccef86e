package syncer

import "tasksync/internal/models"

// Partition slices the ordered entry list into contiguous chunks of at most
// size, preserving the incoming order. A task with several mutations may be
// split across batch boundaries; batches are applied sequentially, so
// per-task ordering still holds.
func Partition(entries []models.MutationEntry, size int) [][]models.MutationEntry {
	if size < 1 {
		size = models.DefaultBatchSize
	}

	var batches [][]models.MutationEntry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		batches = append(batches, entries[start:end])
	}
	return batches
}
