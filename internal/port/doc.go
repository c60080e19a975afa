// Package port checks local TCP ports before a development server binds
// them.
//
// ember serve waits silently when its port is taken, so the CLI checks
// first and fails with exit code 5:
//
//	if err := port.Check(4200); err != nil {
//	    return err // errors.ErrPortInUse
//	}
//
// Allocate picks the lowest free port of a range, which is how benchmark
// runs give each server its own port and live reload port.
package port
