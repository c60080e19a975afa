package port

import (
	"fmt"
	"net"
	"strconv"

	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
)

// Available reports whether port can be bound on localhost.
func Available(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// Check returns a port-in-use error if port cannot be bound.
func Check(port int) error {
	if !Available(port) {
		return errors.PortInUse(port)
	}
	return nil
}

// Allocate finds the lowest available port in [from, to], skipping ports in
// exclude.
func Allocate(from, to int, exclude ...int) (int, error) {
	used := make(map[int]bool, len(exclude))
	for _, p := range exclude {
		used[p] = true
	}

	for p := from; p <= to; p++ {
		if !used[p] && Available(p) {
			return p, nil
		}
	}

	return 0, fmt.Errorf("no available ports in range %d-%d", from, to)
}
