package executor

// Submitter is the two-method shape go-inprocgrpc's Loop interface
// requires of an in-process gRPC transport's dispatcher
// (github.com/joeycumines/go-inprocgrpc inprocgrpc/options.go): Submit onto
// an external queue, SubmitInternal onto a priority queue processed before
// it. gnbasync does not import go-inprocgrpc itself — that module pulls in
// the full grpc-go stack for a transport concern this package has no use
// for — but its Loop contract is reused verbatim here so that anything
// already satisfying it (an inprocgrpc-style in-process dispatcher) can be
// used as a gnbasync.Executor without writing a new adapter.
type Submitter interface {
	Submit(func()) error
	SubmitInternal(func()) error
}

// InprocAdapter adapts a Submitter to gnbasync.Executor. Neither of
// Submitter's methods is documented as able to run inline, so Execute maps
// to SubmitInternal (processed ahead of ordinary external work, the closest
// available approximation of "prefer to run this soon") and Defer maps to
// Submit (the plain external queue) — both enqueue, which is a conservative
// but always-correct reading of Execute's "may run inline" allowance.
type InprocAdapter struct {
	loop Submitter
}

// NewInprocAdapter wraps loop as a gnbasync.Executor.
func NewInprocAdapter(loop Submitter) *InprocAdapter {
	return &InprocAdapter{loop: loop}
}

func (a *InprocAdapter) Execute(closure func()) bool {
	return a.loop.SubmitInternal(closure) == nil
}

func (a *InprocAdapter) Defer(closure func()) bool {
	return a.loop.Submit(closure) == nil
}
