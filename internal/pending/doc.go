// Package pending persists the set of albums whose release year could not be
// confidently resolved and should be re-checked after a cooldown.
//
// The store keeps an in-memory map guarded by a single mutex as the source of
// truth and mirrors every mutation to a SQLite table. A failed durable write
// is logged and retried implicitly on the next mutation; the in-memory state
// wins for the remainder of the run. Entries are only ever removed by
// explicit removal or successful resolution, never by expiry.
package pending
