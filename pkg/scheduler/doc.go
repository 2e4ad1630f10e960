// Package scheduler drives pull-based producers of UI trees.
//
// A Producer yields successive *vdom.VNode snapshots. A Session pulls one
// snapshot, applies it to a mount point through a Renderer, then suspends
// on its Gate until Trigger is called, and repeats until the producer is
// exhausted, fails, or the session is stopped.
//
//	s := scheduler.New(producer, mount, dom.NewRenderer(),
//	    scheduler.WithLabel("/city/:name"),
//	    scheduler.WithLogger(logger),
//	)
//	if err := s.Start(ctx); err != nil { ... }
//	s.Trigger() // re-render
//	s.Stop()
//
// Each live session runs one goroutine which alone pulls and applies, so
// applies never overlap and pulls and applies strictly alternate. Triggers
// that arrive while a render is in progress coalesce into one re-render.
//
// A failure while pulling or applying, including a panic, terminates only
// the failing session. It is reported as a *ProducerError and the last
// applied tree stays on screen.
package scheduler
