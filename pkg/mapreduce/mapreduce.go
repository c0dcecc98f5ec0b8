// Package mapreduce holds the pure halves of the cluster computation:
// splitting the shared file list across ranks and combining their subtotals.
package mapreduce

import "github.com/dtnitsch/log-word-counter/models"

// Partition returns the files assigned to rank in a group of size processes:
// positions rank, rank+size, rank+2*size, ... of files.
// The result depends only on its arguments, so every process computes the
// same assignment without talking to the others.
func Partition(files []string, rank, size int) []models.WorkItem {
	if size < 1 || rank < 0 || rank >= size {
		return nil
	}

	items := make([]models.WorkItem, 0, (len(files)+size-1)/size)
	for i := rank; i < len(files); i += size {
		items = append(items, models.WorkItem{Index: i, Path: files[i]})
	}
	return items
}

// Share is the number of files the busiest rank receives.
func Share(total, size int) int {
	if size < 1 {
		return total
	}
	return (total + size - 1) / size
}

// Reduce sums per-process subtotals into the global total.
func Reduce(subtotals []int64) int64 {
	var total int64
	for _, s := range subtotals {
		total += s
	}
	return total
}
