// Package impact implements the pull-request-only analysis stage: it maps
// diff hunks onto the parsed symbol outline to name the functions and types a
// change touches, and grades the change with a coarse risk score built from
// change size and finding density.
package impact
