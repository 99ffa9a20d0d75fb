// Package harness runs grid scenarios end to end.
//
// A scenario names a CUE schema and a grid, gives one request input, and
// asserts on what comes out:
//
//	name: users_active_search
//	description: Active users matching a name search
//	schema: ../schemas/users.cue
//	grid: users
//	stable_order: id
//	fixtures:
//	  - CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, status TEXT)
//	  - INSERT INTO users VALUES (1, 'ann', 'active')
//	input:
//	  filter: {status: active}
//	  paginate: {limit: 2}
//	assertions:
//	  - type: sql_equals
//	    sql: SELECT id, name, status FROM users WHERE status = ? ...
//	  - type: rows
//	    column: id
//	    values: [1]
//
// Execution flow:
//
//  1. Load the schema (file or directory) and look up the grid
//  2. Parse the input and bind it to the grid
//  3. Compile the bound specifications with the SQL writer
//  4. Render SQL for the scenario dialect
//  5. When fixtures are given, run the SQL on a fresh in-memory SQLite store
//  6. Evaluate assertions
//
// Compile and render failures are recorded on the Result rather than
// returned, so scenarios can assert on them with the "error" assertion.
// RunWithGolden snapshots the outcome as canonical JSON under
// testdata/golden.
package harness
