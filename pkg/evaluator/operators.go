package evaluator

import (
	"math"

	"github.com/thomasrohde/ct/pkg/ast"
	"github.com/thomasrohde/ct/pkg/diagnostics"
)

// applyBinary applies a non-assignment operator to two evaluated operands.
// The accepted operators depend on the operand pairing:
//
//	int, int              < > <= >= == != + - * / %   (arithmetic stays int)
//	int/float mixes       same set                    (int is promoted)
//	bool, bool            == != && ||
//	String, String        < > <= >= == != +
func applyBinary(site ast.Node, op string, left, right Value) (Value, error) {
	if left == nil || right == nil {
		return nil, fail(diagnostics.EMissingOperand, site,
			"missing operand in binary expression: %s %s %s", TypeOf(left), op, TypeOf(right))
	}

	switch l := left.(type) {
	case CtInt:
		switch r := right.(type) {
		case CtInt:
			if v, ok, err := intOp(site, op, l.Value, r.Value); ok || err != nil {
				return v, err
			}
		case CtFloat:
			if v, ok := floatOp(op, float64(l.Value), r.Value); ok {
				return v, nil
			}
		}

	case CtFloat:
		switch r := right.(type) {
		case CtFloat:
			if v, ok := floatOp(op, l.Value, r.Value); ok {
				return v, nil
			}
		case CtInt:
			if v, ok := floatOp(op, l.Value, float64(r.Value)); ok {
				return v, nil
			}
		}

	case CtBool:
		if r, ok := right.(CtBool); ok {
			switch op {
			case "==":
				return NewBool(l.Value == r.Value), nil
			case "!=":
				return NewBool(l.Value != r.Value), nil
			case "&&":
				return NewBool(l.Value && r.Value), nil
			case "||":
				return NewBool(l.Value || r.Value), nil
			}
		}

	case CtString:
		if r, ok := right.(CtString); ok {
			if v, ok := compare(op, l.Value, r.Value); ok {
				return v, nil
			}
			if op == "+" {
				return NewString(l.Value + r.Value), nil
			}
		}
	}

	return nil, fail(diagnostics.EOperator, site,
		"unknown operator expression: %s %s %s", TypeOf(left), op, TypeOf(right))
}

type ordered interface {
	~int64 | ~float64 | ~string
}

func compare[T ordered](op string, a, b T) (Value, bool) {
	switch op {
	case "<":
		return NewBool(a < b), true
	case ">":
		return NewBool(a > b), true
	case "<=":
		return NewBool(a <= b), true
	case ">=":
		return NewBool(a >= b), true
	case "==":
		return NewBool(a == b), true
	case "!=":
		return NewBool(a != b), true
	}
	return nil, false
}

func intOp(site ast.Node, op string, a, b int64) (Value, bool, error) {
	if v, ok := compare(op, a, b); ok {
		return v, true, nil
	}
	switch op {
	case "+":
		return NewInt(a + b), true, nil
	case "-":
		return NewInt(a - b), true, nil
	case "*":
		return NewInt(a * b), true, nil
	case "/", "%":
		if b == 0 {
			return nil, false, fail(diagnostics.EDivZero, site, "integer division by zero")
		}
		if op == "/" {
			return NewInt(a / b), true, nil
		}
		return NewInt(a % b), true, nil
	}
	return nil, false, nil
}

func floatOp(op string, a, b float64) (Value, bool) {
	if v, ok := compare(op, a, b); ok {
		return v, true
	}
	switch op {
	case "+":
		return NewFloat(a + b), true
	case "-":
		return NewFloat(a - b), true
	case "*":
		return NewFloat(a * b), true
	case "/":
		return NewFloat(a / b), true
	case "%":
		return NewFloat(math.Mod(a, b)), true
	}
	return nil, false
}
