// Package batch iterates a library's albums through the year resolution
// pipeline, either strictly batch-by-batch with inter-batch pauses or with
// bounded concurrency behind a counting semaphore. A failure in one album is
// isolated: it is logged and counted, and sibling albums in the same batch
// run to completion.
package batch
