// Package ir provides the literal value types shared by every datagrid layer.
//
// Raw request input, converted validator output and query parameters are all
// expressed as IRValue. The package imports nothing internal so validators,
// specifications and writers can all depend on it.
//
// Key design constraints:
//   - NO float types anywhere - numbers are int64
//   - IRValue is sealed; type switches over it are exhaustive
//   - Canonical JSON (sorted keys, NFC strings) is used for golden output
package ir
