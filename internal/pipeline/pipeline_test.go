package pipeline

import (
	"strings"
	"testing"

	"github.com/knotlang/knot/internal/dump"
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/strs"
)

// newBooted builds a full interpreter with stdout captured in an
// in-memory IO-string, prelude loaded.
func newBooted(t *testing.T) *machine.Interpreter {
	t.Helper()
	in := New()
	in.Stdout = strs.NewIOString(in.Mem, strs.Empty(in.Mem))
	in.Stderr = strs.NewIOString(in.Mem, strs.Empty(in.Mem))
	if err := Boot(in); err != nil {
		t.Fatalf("boot: %v", err)
	}
	return in
}

func runOK(t *testing.T, in *machine.Interpreter, src string) {
	t.Helper()
	status, err := RunSource(in, src)
	if err != nil {
		t.Fatalf("run %q: parse error %v", src, err)
	}
	if status != nil {
		t.Fatalf("run %q: raised %s", src, ErrorMessage(in, status))
	}
}

func runErr(t *testing.T, in *machine.Interpreter, src string) string {
	t.Helper()
	status, err := RunSource(in, src)
	if err != nil {
		return err.Error()
	}
	if status == nil {
		t.Fatalf("run %q: expected an error", src)
	}
	msg := ErrorMessage(in, status)
	in.Status = nil
	return msg
}

// stackInts reads the whole work stack bottom-to-top as int64s.
func stackInts(t *testing.T, in *machine.Interpreter) []int64 {
	t.Helper()
	var out []int64
	for _, c := range heap.ListToSlice(in.Stack) {
		if c == nil || c.Tag != heap.TagInt {
			t.Fatalf("non-integer on stack: %v", c)
		}
		out = append(out, c.I)
	}
	// ListToSlice walks top-down; flip to bottom-up.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func top(in *machine.Interpreter) *heap.Cell {
	if in.Stack == nil {
		return nil
	}
	return in.Stack.Item
}

func stdoutText(in *machine.Interpreter) string {
	return strs.Text(strs.Contents(in.Stdout))
}

func TestScenarioArithmetic(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `1 2 +`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 3 {
		t.Fatalf("stack = %v, want [3]", got)
	}
}

func TestScenarioStringAppend(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `"abc" "de" Append`)
	if got := strs.Text(top(in)); got != "abcde" {
		t.Fatalf("top = %q, want abcde", got)
	}
}

func TestScenarioBooleans(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `True False Or Not`)
	c := top(in)
	if c == nil || c.Tag != heap.TagBool || c.B {
		t.Fatalf("top = %v, want False", c)
	}
}

func TestScenarioDef(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `Def X 5 X X *`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 25 {
		t.Fatalf("stack = %v, want [25]", got)
	}
}

func TestScenarioLetAndDo(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `Let Y 10 (Y 1 +) Do`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 11 {
		t.Fatalf("stack = %v, want [11]", got)
	}
}

func TestScenarioStackSnapshot(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `1 2 3 Stack`)
	snapshot := top(in)
	if snapshot == nil || snapshot.Tag != heap.TagList {
		t.Fatalf("top should be a list, got %v", snapshot)
	}
	items := heap.ListToSlice(snapshot)
	if len(items) != 3 || items[0].I != 3 || items[1].I != 2 || items[2].I != 1 {
		t.Fatalf("snapshot = %s, want (3 2 1)", dump.Show(in, snapshot, true))
	}
	rest := heap.ListToSlice(in.Stack.Next)
	if len(rest) != 3 || rest[0].I != 3 || rest[2].I != 1 {
		t.Fatalf("original stack disturbed")
	}
}

func TestScenarioParsedBlockExecution(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `(1 2 3) Do`)
	if got := stackInts(t, in); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("stack = %v, want [1 2 3]", got)
	}
}

func TestScenarioSymbolShow(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `\foo Show`)
	if got := strs.Text(top(in)); got != `\foo` {
		t.Fatalf("Show = %q, want \\foo", got)
	}
}

func TestClosureCapture(t *testing.T) {
	in := newBooted(t)
	// The closure reads the Y live at binding time, through the
	// captured scope chain, even when run later at top level.
	runOK(t, in, `Let Y 2 Def AddY (Y +) 40 AddY`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 42 {
		t.Fatalf("stack = %v, want [42]", got)
	}
}

func TestNestedCalls(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `Def Quad (Square Square) 3 Quad`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 81 {
		t.Fatalf("stack = %v, want [81]", got)
	}
}

func TestIfAndComparisons(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `5 3 > (1) (2) If`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 1 {
		t.Fatalf("stack = %v, want [1]", got)
	}
	in.Stack = nil
	runOK(t, in, `5 3 < (1) (2) If`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 2 {
		t.Fatalf("stack = %v, want [2]", got)
	}
}

func TestWhileLoop(t *testing.T) {
	in := newBooted(t)
	// Sum 1..5 threading (sum i) through the stack.
	runOK(t, in, `
		0 1
		(Dup 5 <=)
		(Tuck + Swap 1 +)
		While
		Drop`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 15 {
		t.Fatalf("stack = %v, want [15]", got)
	}
}

func TestRecursion(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `
		Def Count-down (Dup 0 > (Dup 1 - Count-down) () If)
		3 Count-down`)
	if got := stackInts(t, in); len(got) != 4 || got[0] != 3 || got[3] != 0 {
		t.Fatalf("stack = %v, want [3 2 1 0]", got)
	}
}

func TestCallCC(t *testing.T) {
	in := newBooted(t)
	// The continuation escapes the quotation: 99 never lands.
	runOK(t, in, `(10 Swap Resume 99) Call/cc 1 +`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 11 {
		t.Fatalf("stack = %v, want [11]", got)
	}
}

func TestCallCCIgnoredContinuation(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `(Drop 5) Call/cc`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 5 {
		t.Fatalf("stack = %v, want [5]", got)
	}
}

func TestPreludeWords(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `7 Inc Dec Square`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 49 {
		t.Fatalf("stack = %v, want [49]", got)
	}
	in.Stack = nil
	runOK(t, in, `True (42) When`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 42 {
		t.Fatalf("When = %v", got)
	}
	in.Stack = nil
	runOK(t, in, `False (42) Unless`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 42 {
		t.Fatalf("Unless = %v", got)
	}
}

func TestPrintWritesStdout(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `"hello" Println 42 Println`)
	if got := stdoutText(in); got != "hello\n42\n" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestListOperators(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `1 List Cons 2 Swap Cons Dup Length Swap First`)
	// list built: (2 1); Length = 2; First = 2.
	if got := stackInts(t, in); len(got) != 2 || got[0] != 2 || got[1] != 2 {
		t.Fatalf("stack = %v, want [2 2]", got)
	}
}

func TestEmptyListEquality(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `List 1 List Cons =`)
	c := top(in)
	if c == nil || c.Tag != heap.TagBool || c.B {
		t.Fatalf("() = (1) should be False, got %v", c)
	}
	in.Stack = nil
	runOK(t, in, `List List =`)
	c = top(in)
	if c == nil || c.Tag != heap.TagBool || !c.B {
		t.Fatalf("() = () should be True, got %v", c)
	}
}

func TestStringOperators(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `"Hello" Uppercase`)
	if got := strs.Text(top(in)); got != "HELLO" {
		t.Fatalf("Uppercase = %q", got)
	}
	in.Stack = nil
	runOK(t, in, `"hello" 1 3 Substring`)
	if got := strs.Text(top(in)); got != "el" {
		t.Fatalf("Substring = %q", got)
	}
	in.Stack = nil
	runOK(t, in, `"A" Ordinal`)
	if got := stackInts(t, in); got[0] != 65 {
		t.Fatalf("Ordinal = %v", got)
	}
	in.Stack = nil
	runOK(t, in, `955 Character Ordinal`)
	if got := stackInts(t, in); got[0] != 955 {
		t.Fatalf("multibyte Character/Ordinal round trip = %v", got)
	}
}

func TestErrorUndefined(t *testing.T) {
	in := newBooted(t)
	msg := runErr(t, in, `Undefined-word`)
	if !strings.Contains(msg, "ERROR:") || !strings.Contains(msg, "undefined") {
		t.Fatalf("msg = %q", msg)
	}
}

func TestErrorArity(t *testing.T) {
	in := newBooted(t)
	msg := runErr(t, in, `+`)
	if !strings.Contains(msg, "arity") {
		t.Fatalf("msg = %q", msg)
	}
}

func TestErrorType(t *testing.T) {
	in := newBooted(t)
	msg := runErr(t, in, `1 "x" +`)
	if !strings.Contains(msg, "type error") {
		t.Fatalf("msg = %q", msg)
	}
}

func TestErrorDefOnEmptyStack(t *testing.T) {
	in := newBooted(t)
	msg := runErr(t, in, `Def X ;`)
	if !strings.Contains(msg, "arity") {
		t.Fatalf("msg = %q", msg)
	}
}

func TestErrorDivisionByZero(t *testing.T) {
	in := newBooted(t)
	msg := runErr(t, in, `1 0 /`)
	if !strings.Contains(msg, "division by zero") {
		t.Fatalf("msg = %q", msg)
	}
}

func TestErrorHaltsRestOfProgram(t *testing.T) {
	in := newBooted(t)
	runErr(t, in, `Undefined-word 1 2 3`)
	if in.Stack != nil {
		t.Fatalf("frames past a raised error should not run, stack = %v",
			dump.Show(in, in.Stack, true))
	}
}

func TestFail(t *testing.T) {
	in := newBooted(t)
	msg := runErr(t, in, `"boom" Fail`)
	if !strings.Contains(msg, "boom") {
		t.Fatalf("msg = %q", msg)
	}
}

func TestInterpreterStateSurvivesError(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `Def Keep 7`)
	runErr(t, in, `Undefined-word`)
	runOK(t, in, `Keep`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 7 {
		t.Fatalf("definitions should survive an error, stack = %v", got)
	}
}

func TestBoxSemantics(t *testing.T) {
	in := newBooted(t)
	// Bind the box itself: build it, then let the binder take it off
	// the stack via the Dup item.
	runOK(t, in, `1 Box Let B Dup Drop 2 B Set! B Unbox`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 2 {
		t.Fatalf("stack = %v, want [2]", got)
	}
}

func TestHashNegativeZero(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `0.0 Hash 0.0 Neg Hash =`)
	c := top(in)
	if c == nil || c.Tag != heap.TagBool || !c.B {
		t.Fatalf("hash(-0.0) must equal hash(+0.0)")
	}
}

func TestYamlDecode(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `"- 1\n- 2\n- 3" YamlDecode Length`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 3 {
		t.Fatalf("yaml sequence length = %v", got)
	}
}

func TestFormatOperator(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `1 2 + Stack "result %O" Format`)
	if got := strs.Text(top(in)); got != "result 3" {
		t.Fatalf("Format = %q", got)
	}
}

func TestGCDuringExecution(t *testing.T) {
	in := newBooted(t)
	// Enough transient garbage to trip several collections mid-run.
	runOK(t, in, `
		0
		(Dup 500 <)
		("garbage" "more" Append Drop 1 +)
		While`)
	if got := stackInts(t, in); len(got) != 1 || got[0] != 500 {
		t.Fatalf("stack = %v, want [500]", got)
	}
	if in.Mem.GCCycles() == 0 {
		t.Fatalf("expected at least one collection")
	}
}

func TestParametersBinding(t *testing.T) {
	in := newBooted(t)
	BindParameters(in, []string{"knot", "script.kn", "arg"})
	runOK(t, in, `Parameters Length Parameters First`)
	if got := strs.Text(top(in)); got != "knot" {
		t.Fatalf("Parameters head = %q", got)
	}
	if in.Stack.Next.Item.I != 3 {
		t.Fatalf("Parameters length = %d, want 3", in.Stack.Next.Item.I)
	}
}

func TestShowParseRoundTripThroughEngine(t *testing.T) {
	in := newBooted(t)
	runOK(t, in, `1 2.5 True "s" \sym Stack Show`)
	text := strs.Text(top(in))
	in.Stack = nil
	// Feeding the shown list back in parses it as a block; running it
	// pushes the same items, so a reversed snapshot re-renders identically.
	runOK(t, in, text+` Do Stack Reverse Show`)
	if got := strs.Text(top(in)); got != text {
		t.Fatalf("round trip changed rendering: %q vs %q", got, text)
	}
}
