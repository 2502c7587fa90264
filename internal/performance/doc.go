// Package performance aggregates student records and classifies the results.
//
// Everything here is a pure function of its inputs: no I/O, no shared state,
// safe to call from concurrent requests. Averages are optional values; a group
// with no recorded grade has a nil average, never zero.
package performance
