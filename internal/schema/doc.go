// Package schema declares data grids in CUE and binds request input to them.
//
// A grid names its source table, its selectable columns, the filters and
// sorters callers may use and its pagination bounds:
//
//	grid: users: {
//		from:    "users"
//		columns: ["id", "name", "status"]
//		filters: {
//			status: {kind: "equals", expr: "status", value: {enum: {of: "string", values: ["active", "banned"]}}}
//			search: {kind: "any", filters: [
//				{kind: "like", expr: "name", value: "string"},
//				{kind: "like", expr: "email", value: "string"},
//			]}
//			visible: {kind: "not_equals", expr: "status", literal: "deleted"}
//		}
//		sorters: {
//			name:    "name"
//			created: ["created_at", "id"]
//		}
//		pagination: {limit: 25, max: 100}
//	}
//
// Filters holding validators are placeholders until Bind resolves them
// against caller input. Filters built only from literals apply to every
// request. Input the validators reject is reported in Bound.Rejected and
// never reaches a query.
package schema
