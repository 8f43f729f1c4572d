package pool

// Job is a unit of work submitted to a Pool. It takes no arguments and
// returns nothing, is invoked at most once, and must be safe to run on
// whichever worker goroutine happens to claim it.
type Job func()

// envelopeKind tags what an envelope carries across the dispatch queue.
type envelopeKind int

const (
	envelopeJob envelopeKind = iota
	envelopeTerminate
)

// envelope is the message that travels through the dispatch queue: either
// a Job to run, or a terminate signal telling the receiving worker to exit
// its loop. Envelopes are move-only in spirit — once a worker pops one off
// the queue, nothing else will ever see it again.
type envelope struct {
	kind envelopeKind
	job  Job
}
