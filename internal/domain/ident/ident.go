// Package ident generates and checks the opaque identifiers assigned to jobs,
// tasks, steps, customers and technicians.
package ident

import "github.com/google/uuid"

// New returns a fresh random identifier. uuid.New panics when the system
// randomness source fails, which is treated as fatal for the process.
func New() string {
	return uuid.New().String()
}

// Valid reports whether s is syntactically an identifier produced by New.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
