// Package querysql writes specifications into query builders and renders the
// resulting queries as parameterized SQL.
//
// Writer is the compiler.Writer for targets implementing queryir.Builder.
// SQLCompiler renders a queryir.Select for the sqlite or postgres dialect.
// Values never appear in SQL text; they are returned as parameters.
package querysql
