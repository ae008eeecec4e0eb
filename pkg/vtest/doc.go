// Package vtest provides probe widgets and assertions for testing widget
// trees.
//
// A Log records what happened to every probe: renders, layouts, paints and
// lifecycle hooks. Probes pass their children through, so an element tree
// built from probes mounts as exactly that tree.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    log := vtest.NewLog()
//	    tr := render.New()
//	    tr.Render(log.Probe("app", log.Probe("a"), log.Probe("b")))
//	    vtest.ExpectEvents(t, log.Take(), "render app", "render a", "render b")
//	}
//
// # Frozen Probes
//
// A frozen probe declines every update, which exercises the Skipped path:
//
//	log.Frozen("static", log.Probe("child"))
//
// # Error Codes
//
// Structural misuse panics with coded errors. ExpectPanicCode asserts on
// the code:
//
//	vtest.ExpectPanicCode(t, "E103", func() { tr.Move(root).Before(other) })
package vtest
