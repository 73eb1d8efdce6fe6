// Package pipeline runs a link check as a sequence of steps.
//
// The default pipeline has two steps: discover, which walks the base
// directory, and check, which reads every document and resolves its links.
// Each step receives the report accumulated so far and adds to it.
//
// Documents are checked concurrently by a BatchProcessor built on errgroup
// with a concurrency limit. Results are merged in traversal order, so the
// report is identical for every concurrency setting.
package pipeline
