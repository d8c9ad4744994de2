/*
Package vhash provides persistent, multi-version hash maps and sets
whose versions are immutable and cheap to create. Every Put, Add or
Delete returns a handle for a new version and leaves the old handle
observing exactly what it did before, without copying anything.

Uses

- Keeping many snapshots of a large working set, e.g. one per
request, transaction or simulation step

- Branching: any old version can be written to again, starting a
branch that evolves independently of the others

- A copy-on-write alternative to the Go builtin map that never
copies


How it works

All versions descended from one NewMap or NewSet form a lineage
and share one hash table. Instead of a value, each key's entry holds
a history: every value it was given, labelled with the number of the
version that wrote it. A deletion is recorded as a tombstone.

Every version knows its ancestors, the versions on its path back to
the root. A lookup walks the key's history newest first and returns
the first write made by an ancestor, so a version sees what its
ancestors wrote and nothing written on other branches or after it.
Extending the newest version of a branch shares its ancestor set;
branching from an older version clones it.

Growing the table relinks entries into more buckets but never
touches histories, so rehashing changes no version's view.

Concurrency

Handles are safe to share between goroutines. The table of a lineage
is guarded by a single read/write lock: lookups, iteration steps and
dumps read, and mutations write. Iterators take the lock one step at
a time, so a goroutine may iterate one version while others mutate
the lineage.

Memory

Nothing a lineage ever writes is freed while any of its handles are
reachable. Clear starts a new lineage.
*/
package vhash
