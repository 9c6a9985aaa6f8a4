package eval

import "github.com/suma/toylang/internal/object"

// Kind tags the three-way outcome every evaluator operation returns,
// generalizing the teacher's `(retVal Object, ret bool)` two-tuple Run
// convention (run.go/callable.go) to TL's extra Break/Continue states
// (spec.md §4.4 "Control-flow propagation").
type Kind int

const (
	KindValue Kind = iota
	KindBreak
	KindContinue
	KindReturn
)

// Outcome is what every statement- and expression-evaluating function
// returns. A loop consumes Break/Continue; a function call consumes
// Return; everything else re-propagates an outcome it doesn't own
// untouched, the direct generalization of the teacher's
// `if ret { return retVal, true }` idiom.
type Outcome struct {
	Kind  Kind
	Value object.Object
}

// Value wraps v as an ordinary (non-control-flow) result.
func Value(v object.Object) Outcome { return Outcome{Kind: KindValue, Value: v} }

var (
	breakOutcome    = Outcome{Kind: KindBreak}
	continueOutcome = Outcome{Kind: KindContinue}
)
