package sub

import (
	"testing"

	"github.com/loomtk/loom/pkg/comp"
	"github.com/loomtk/loom/pkg/event"
)

type loginMsg struct{ user string }
type logoutMsg struct{}

var eventClauseTests = []struct {
	name   string
	clause EventClause
	ev     event.Event
	want   bool
}{
	{"any matches keys", Any(), event.K('a'), true},
	{"any matches ticks", Any(), event.Tick{}, true},
	{"any matches user events", Any(), event.User{Payload: loginMsg{"elf"}}, true},

	{"keyboard matches any key", Keyboard(), event.K('a', event.Ctrl), true},
	{"keyboard rejects ticks", Keyboard(), event.Tick{}, false},
	{"keyboard rejects mouse", Keyboard(), event.Mouse{Row: 1, Col: 1}, false},

	{"mouse inside range", MouseIn(MouseRange{0, 10, 0, 20}), event.Mouse{Row: 5, Col: 5}, true},
	{"mouse on inclusive corner", MouseIn(MouseRange{0, 10, 0, 20}), event.Mouse{Row: 10, Col: 20}, true},
	{"mouse row out of range", MouseIn(MouseRange{0, 10, 0, 20}), event.Mouse{Row: 11, Col: 5}, false},
	{"mouse col out of range", MouseIn(MouseRange{0, 10, 0, 20}), event.Mouse{Row: 5, Col: 21}, false},
	{"mouse rejects keys", MouseIn(MouseRange{0, 10, 0, 20}), event.K('a'), false},

	{"resized matches resizes", Resized(), event.Resize{Rows: 24, Cols: 80}, true},
	{"resized rejects keys", Resized(), event.K('a'), false},

	{"ticked matches ticks", Ticked(), event.Tick{}, true},
	{"ticked rejects keys", Ticked(), event.K('a'), false},

	{"user matches equal payload", User(loginMsg{"elf"}), event.User{Payload: loginMsg{"elf"}}, true},
	{"user rejects different payload", User(loginMsg{"elf"}), event.User{Payload: loginMsg{"imp"}}, false},
	{"user rejects different type", User(loginMsg{"elf"}), event.User{Payload: logoutMsg{}}, false},
	{"user rejects non-user events", User(loginMsg{"elf"}), event.K('a'), false},

	{"discriminant ignores payload value", Discriminant(loginMsg{}), event.User{Payload: loginMsg{"elf"}}, true},
	{"discriminant rejects different type", Discriminant(loginMsg{}), event.User{Payload: logoutMsg{}}, false},
	{"discriminant rejects non-user events", Discriminant(loginMsg{}), event.Tick{}, false},
}

func TestEventClause(t *testing.T) {
	for _, test := range eventClauseTests {
		if got := test.clause.matches(test.ev); got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

// testEnv returns an Env over a fixed two-component world: "input" is
// mounted with focus=true and state "editing"; "list" is mounted with no
// attributes and no state.
func testEnv() Env {
	attrs := map[string]map[comp.Attribute]comp.AttrValue{
		"input": {comp.Focus: true},
	}
	states := map[string]comp.State{
		"input": "editing",
	}
	mounted := map[string]bool{"input": true, "list": true}
	return Env{
		Attr: func(id string, name comp.Attribute) comp.AttrValue {
			return attrs[id][name]
		},
		State:   func(id string) comp.State { return states[id] },
		Mounted: func(id string) bool { return mounted[id] },
	}
}

var clauseTests = []struct {
	name   string
	clause Clause
	want   bool
}{
	{"always", Always(), true},

	{"has attr with matching value", HasAttr("input", comp.Focus, true), true},
	{"has attr with wrong value", HasAttr("input", comp.Focus, false), false},
	{"has attr missing attribute", HasAttr("list", comp.Focus, true), false},
	{"has attr unmounted component", HasAttr("ghost", comp.Focus, true), false},

	{"has state with matching state", HasState("input", "editing"), true},
	{"has state with wrong state", HasState("input", "idle"), false},
	{"has state missing state", HasState("list", "editing"), false},

	{"is mounted", IsMounted("list"), true},
	{"is mounted unmounted component", IsMounted("ghost"), false},

	{"not inverts", Not(IsMounted("ghost")), true},
	{"and both hold", And(Always(), IsMounted("input")), true},
	{"and one fails", And(Always(), IsMounted("ghost")), false},
	{"or one holds", Or(IsMounted("ghost"), Always()), true},
	{"or none holds", Or(IsMounted("ghost"), Not(Always())), false},

	{"and many all hold", AndMany(Always(), IsMounted("input"), IsMounted("list")), true},
	{"and many one fails", AndMany(Always(), IsMounted("ghost")), false},
	{"or many one holds", OrMany(IsMounted("ghost"), HasState("input", "editing")), true},
	{"or many none holds", OrMany(IsMounted("ghost"), HasState("input", "idle")), false},

	// Over zero clauses both combinators evaluate to false.
	{"and many empty is false", AndMany(), false},
	{"or many empty is false", OrMany(), false},

	{"nested tree", And(Not(AndMany()), Or(IsMounted("ghost"), HasAttr("input", comp.Focus, true))), true},
}

func TestClause(t *testing.T) {
	env := testEnv()
	for _, test := range clauseTests {
		if got := test.clause.eval(env); got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

func TestSub_FiresOnlyWhenBothMatch(t *testing.T) {
	env := testEnv()
	s := New(Ticked(), HasAttr("input", comp.Focus, true))
	if !s.Matches(event.Tick{}, env) {
		t.Errorf("matching event and holding clause: got false, want true")
	}
	if s.Matches(event.K('a'), env) {
		t.Errorf("non-matching event: got true, want false")
	}
	s = New(Ticked(), HasAttr("input", comp.Focus, false))
	if s.Matches(event.Tick{}, env) {
		t.Errorf("failing clause: got true, want false")
	}
}

func TestSub_SharedClauseTree(t *testing.T) {
	when := OrMany(IsMounted("input"), IsMounted("list"))
	a := New(Ticked(), when)
	b := New(Keyboard(), when)
	env := testEnv()
	if !a.Matches(event.Tick{}, env) || !b.Matches(event.K('x'), env) {
		t.Errorf("subscriptions sharing one clause tree do not both match")
	}
}
