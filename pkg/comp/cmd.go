package comp

// CmdKind enumerates the behavioral commands a widget understands.
type CmdKind int

// Values for CmdKind.
const (
	CmdMove CmdKind = iota
	CmdScroll
	CmdType
	CmdDelete
	CmdCancel
	CmdSubmit
	CmdToggle
	CmdChange
	CmdCustom
)

// Direction qualifies Move and Scroll commands.
type Direction int

// Values for Direction.
const (
	Up Direction = iota
	Down
	Left
	Right
	Begin
	End
)

// Cmd is a behavioral command performed on a widget through Perform. Only
// the field relevant to the Kind is meaningful.
type Cmd struct {
	Kind CmdKind
	Dir  Direction // for CmdMove and CmdScroll
	Rune rune      // for CmdType
	Tag  string    // for CmdCustom
}

// Commands that carry no payload.
var (
	Delete = Cmd{Kind: CmdDelete}
	Cancel = Cmd{Kind: CmdCancel}
	Submit = Cmd{Kind: CmdSubmit}
	Toggle = Cmd{Kind: CmdToggle}
	Change = Cmd{Kind: CmdChange}
)

// Move makes the command that moves the cursor in the given direction.
func Move(d Direction) Cmd { return Cmd{Kind: CmdMove, Dir: d} }

// Scroll makes the command that scrolls the content in the given direction.
func Scroll(d Direction) Cmd { return Cmd{Kind: CmdScroll, Dir: d} }

// Type makes the command that types one rune.
func Type(r rune) Cmd { return Cmd{Kind: CmdType, Rune: r} }

// Custom makes a widget-defined command identified by tag.
func Custom(tag string) Cmd { return Cmd{Kind: CmdCustom, Tag: tag} }

// ResultKind enumerates the outcomes of Perform.
type ResultKind int

// Values for ResultKind.
const (
	ResultNone ResultKind = iota
	ResultChanged
	ResultSubmit
	ResultInvalid
	ResultCustom
	ResultBatch
)

// CmdResult is the outcome of a Perform call. Only the fields relevant to
// the Kind are meaningful.
type CmdResult struct {
	Kind  ResultKind
	State State       // for ResultChanged, ResultSubmit and ResultCustom
	Cmd   Cmd         // for ResultInvalid, the rejected command
	Tag   string      // for ResultCustom
	Batch []CmdResult // for ResultBatch
}

// None is the result of a command that changed nothing.
var None = CmdResult{Kind: ResultNone}

// Changed reports that the command changed the widget's state.
func Changed(st State) CmdResult { return CmdResult{Kind: ResultChanged, State: st} }

// Submitted reports that the command finalized the widget's state.
func Submitted(st State) CmdResult { return CmdResult{Kind: ResultSubmit, State: st} }

// Invalid reports that the widget rejected the command.
func Invalid(c Cmd) CmdResult { return CmdResult{Kind: ResultInvalid, Cmd: c} }

// CustomResult reports a widget-defined outcome identified by tag.
func CustomResult(tag string, st State) CmdResult {
	return CmdResult{Kind: ResultCustom, Tag: tag, State: st}
}

// BatchResult groups the results of a command that had several effects.
func BatchResult(rs ...CmdResult) CmdResult {
	return CmdResult{Kind: ResultBatch, Batch: rs}
}
