// Package memory provides sync.Pool-backed allocation reuse for the
// hot-path order matching structs, cutting per-command GC pressure
// without any manual reclamation bookkeeping.
package memory
