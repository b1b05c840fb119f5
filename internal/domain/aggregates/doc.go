// Package aggregates defines domain-facing aggregate contracts.
//
// Each contract is a write boundary: every method runs in one transaction and
// either applies all of its effects or none of them.
package aggregates
