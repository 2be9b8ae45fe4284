// Loomdemo is a small terminal application built on the loom runtime. It
// shows a ticking clock, the terminal size and a counter driven by key
// chords typed one per line. Sessions can be recorded into a database and
// played back with -record and -replay.
package main

import (
	"os"

	"github.com/loomtk/loom/pkg/buildinfo"
	"github.com/loomtk/loom/pkg/demo"
	"github.com/loomtk/loom/pkg/prog"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(buildinfo.Program{}, demo.Program{})))
}
