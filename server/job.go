package server

import "github.com/flyclient-go/superlight/wire"

// job is one unit of work submitted by a connection handler to the single
// writer goroutine that owns the MMR. Handlers never touch the tree
// directly; they submit a job and block on reply. connID identifies the
// originating connection in the writer's logs, since many connection
// goroutines share the one writer goroutine.
type job struct {
	connID string
	req    wire.Request
	reply  chan jobResult
}

type jobResult struct {
	resp wire.Response
	err  error
}
