package evaluator

// DefaultMaxDepth is the user-function call depth allowed when no limit is configured.
const DefaultMaxDepth = 1000

// Limits holds the resource ceilings for a program execution. Zero means unlimited.
type Limits struct {
	MaxDepth      int
	MaxIterations int64
}

// DefaultLimits returns the limits used when the host configures none.
func DefaultLimits() Limits {
	return Limits{MaxDepth: DefaultMaxDepth}
}

// BudgetTracker tracks resource consumption during execution.
type BudgetTracker struct {
	Depth      int
	Iterations int64
}
