// Package progtest provides a framework for testing subprograms.
//
// The entry point of the framework is the Test function, which accepts a
// *testing.T, the Program implementation under test, and any number of test
// cases.
//
// Test cases are constructed using the ThatLoomdemo function, followed by
// method calls that add expectations about the run.
//
// Example:
//
//	Test(t, someProgram,
//		ThatLoomdemo("-help").WritesStdoutContaining("Usage:"))
package progtest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/loomtk/loom/pkg/must"
	"github.com/loomtk/loom/pkg/prog"
)

// Case is a test case that can be run by Test.
type Case struct {
	args []string
	want result
}

type result struct {
	exit   int
	stdout output
	stderr output
}

type output struct {
	content string
	partial bool
}

func (o output) String() string {
	if o.partial {
		return fmt.Sprintf("text containing %q", o.content)
	}
	return fmt.Sprintf("%q", o.content)
}

// ThatLoomdemo returns a new Case with the given command-line arguments.
func ThatLoomdemo(args ...string) Case {
	return Case{args: append([]string{"loomdemo"}, args...)}
}

// DoesNothing returns c unchanged. It is useful to mark that a case is
// expected to exit with 0 and produce no output.
func (c Case) DoesNothing() Case { return c }

// ExitsWith returns an altered Case that requires the program run to finish
// with the given exit code.
func (c Case) ExitsWith(code int) Case {
	c.want.exit = code
	return c
}

// WritesStdout returns an altered Case that requires the program run to
// write exactly the given text to stdout.
func (c Case) WritesStdout(s string) Case {
	c.want.stdout = output{content: s}
	return c
}

// WritesStdoutContaining returns an altered Case that requires the program
// run to write stdout output containing the given text.
func (c Case) WritesStdoutContaining(s string) Case {
	c.want.stdout = output{content: s, partial: true}
	return c
}

// WritesStderr returns an altered Case that requires the program run to
// write exactly the given text to stderr.
func (c Case) WritesStderr(s string) Case {
	c.want.stderr = output{content: s}
	return c
}

// WritesStderrContaining returns an altered Case that requires the program
// run to write stderr output containing the given text.
func (c Case) WritesStderrContaining(s string) Case {
	c.want.stderr = output{content: s, partial: true}
	return c
}

// Test runs test cases against a given program.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args[1:], " "), func(t *testing.T) {
			t.Helper()
			r := run(p, c.args)
			if r.exit != c.want.exit {
				t.Errorf("got exit code %v, want %v", r.exit, c.want.exit)
			}
			if !matchOutput(r.stdout.content, c.want.stdout) {
				t.Errorf("got stdout %q, want %s", r.stdout.content, c.want.stdout)
			}
			if !matchOutput(r.stderr.content, c.want.stderr) {
				t.Errorf("got stderr %q, want %s", r.stderr.content, c.want.stderr)
			}
		})
	}
}

func matchOutput(got string, want output) bool {
	if want.partial {
		return strings.Contains(got, want.content)
	}
	return got == want.content
}

func run(p prog.Program, args []string) result {
	r0, w0 := must.Pipe()
	// Close the write end so that the program sees an empty stdin.
	w0.Close()
	defer r0.Close()

	r1, w1 := must.Pipe()
	stdout := capture(r1)
	r2, w2 := must.Pipe()
	stderr := capture(r2)

	exit := prog.Run([3]*os.File{r0, w1, w2}, args, p)
	w1.Close()
	w2.Close()
	return result{exit, output{content: <-stdout}, output{content: <-stderr}}
}

// capture reads r until EOF on a goroutine, so that the program under test
// never blocks on a full pipe buffer.
func capture(r *os.File) <-chan string {
	ch := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		r.Close()
		ch <- string(b)
	}()
	return ch
}
