// Package stores persists reconciliation run history in an embedded
// SQLite database. Each run records its status, the number of packages
// touched per operation kind, and timing, so drift over time can be
// inspected with the history command.
package stores
