package loom

import "time"

// PollStrategy determines how many listener receives a single Tick performs
// and how long each of them may block. The possible strategies are Once,
// TryFor, UpTo, UpToNoWait and BlockCollectUpTo.
type PollStrategy interface{ isPollStrategy() }

// Once performs exactly one receive bounded by the listener's poll timeout,
// collecting zero or one event.
type Once struct{}

// TryFor keeps performing bounded receives until D has elapsed, collecting
// everything that arrives. It is a time box: Tick normally blocks for the
// whole of D regardless of when events arrive.
type TryFor struct{ D time.Duration }

// UpTo performs at most N bounded receives, stopping early at the first one
// that comes back empty.
type UpTo struct{ N int }

// UpToNoWait performs one bounded receive, then at most N-1 non-blocking
// ones, stopping early at the first empty result. Once events are flowing it
// never waits out the poll timeout again.
type UpToNoWait struct{ N int }

// BlockCollectUpTo blocks without bound for the first event, then drains
// like UpToNoWait.
type BlockCollectUpTo struct{ N int }

func (Once) isPollStrategy()             {}
func (TryFor) isPollStrategy()           {}
func (UpTo) isPollStrategy()             {}
func (UpToNoWait) isPollStrategy()       {}
func (BlockCollectUpTo) isPollStrategy() {}
