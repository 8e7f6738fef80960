// Package burrowdb is an embedded, single-file key/value store.
//
// Keys are non-empty UTF-8 strings; values are arbitrary UTF-8 strings. The store persists a
// persistent (copy-on-write) binary search tree in a single append-only
// file: every Put or Del allocates new nodes along the path from the
// root to the changed key and leaves every other node untouched, so
// concurrent readers never observe a half-written tree. A transaction
// commits by appending the new path and then rewriting a small,
// fixed-size superblock with the new root's file offset -- that single
// write is the commit's linearization point.
//
// A Put or Del outside an explicit transaction auto-wraps itself in one.
// Cross-process write exclusion is enforced with an advisory OS file
// lock; within one process, a *DB is meant to be driven by a single
// goroutine at a time.
package burrowdb
