// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package logging

import "log/slog"

// Logger for everything happening within a single solver attempt.
// Messages carry the run id and the attempt number so that interleaved
// output of parallel attempts can be told apart.
func Trace(runID string, attempt int) *slog.Logger {
	return slog.Default().With("run", runID, "attempt", attempt)
}

// Logger discarding everything, for callers that have no trace logger.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Return the given logger, or a discarding one if it is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
