// Package store provides the SQLite scratch database that compiled grid
// queries are executed against in scenario checks.
//
// Library packages never touch a database; rendering SQL is enough for them.
// The store exists so tests and the harness can prove that rendered SQL is
// executable and selects the expected rows.
//
// # Database Configuration
//
//   - One open connection, so ":memory:" databases keep their tables
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity in fixtures
//
// Rows come back as ir.IRObject keyed by column name. SQLite TEXT and BLOB
// values become IRString, INTEGER becomes IRInt, NULL becomes IRNull.
package store
