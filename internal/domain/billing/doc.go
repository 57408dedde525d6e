// Package billing contains the quote and invoice document engine: the line
// item calculator, the per-kind status machines, and the revise, duplicate
// and convert derivations that produce new documents from persisted ones.
//
// Every operation is scoped to one company. The company is an explicit
// argument, never ambient state.
package billing
