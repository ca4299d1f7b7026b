// Package tasks orchestrates marker resolution and list exports with real-time progress reporting.
//
// # Core Operations
//
// [Pipeline] turns descriptions into markers:
//
//  1. [Pipeline.Run] : Resolve a batch of descriptions
//     - Resolves each description in order, one at a time
//     - Adds found places to the marker store
//     - Collects unresolved descriptions and provider failures
//
//  2. [Pipeline.Ask] : Interpret a question, then Run
//
//  3. [Pipeline.ExtractAndRun] : Extract place entries from text, then Run
//
// [BulkExport] writes every saved list to a directory with a worker pool and a manifest.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Concurrency
//
// Only one run is in flight at a time. [Pipeline.Run] fails fast with shared.ErrPipelineBusy
// while another run holds the pipeline; [Pipeline.RunQueued] waits for its turn instead.
package tasks
