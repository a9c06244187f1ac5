// Package policy implements the reconciliation core of pkgdrift: it
// turns raw differences between the installed and desired package sets
// into an authoritative operation list that never violates
// administrator overrides or kernel-safety constraints.
//
// # Processing model
//
// The Engine consumes operations produced by the diff stage (pkg/diff),
// one per distinct package name, and resolves each in list order:
//
//  1. Force-resolution applies the mandatory/unwanted overrides first.
//     These are absolute and bypass the user-package flags.
//  2. The reduced operation, if any remains, is dispatched by kind:
//     deletes and installs are filtered package by package, while
//     replace and no-change operations go through the list reconciler
//     with per-architecture partitioning.
//  3. A delete+install pair of the same name produced by one logical
//     unit is collapsed into a single replace, preserving the pre/post
//     script ordering the package system expects of upgrades.
//
// # Failure model
//
// Apply is all-or-nothing. An unrecognized operation kind fails with an
// invalid-input error before any processing; a violated internal
// invariant (a forced flag surviving force-resolution, or a no-change
// target without exactly one equal source) aborts the whole call with
// an internal-logic error. Partial output is never returned, because a
// partially reconciled action set issued against a live package
// database is worse than refusing to act.
//
// The engine is pure and synchronous: it performs no I/O, never mutates
// its inputs, and holds no mutable state beyond the configuration fixed
// at construction, so a single Engine is safe for concurrent callers.
package policy
