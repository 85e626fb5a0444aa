package release

import "sync/atomic"

// PublishState is the single flag recording whether the publish stage's
// success path was reached. It starts false, is set exactly once, and is
// never reset; a caught-and-rolled-back publish failure leaves it false.
// Read by the tag-push skip predicate and the exit safety net.
type PublishState struct {
	published atomic.Bool
}

// MarkPublished records that the publish succeeded.
func (s *PublishState) MarkPublished() {
	s.published.Store(true)
}

// Published reports whether the publish success path was reached.
func (s *PublishState) Published() bool {
	return s.published.Load()
}
