package instantiate

import "github.com/VonTum/sus-compiler/internal/ir"

// evalUnary and evalBinary fold generative operators at instantiation
// time. The operator set mirrors internal/typing's fixed
// signature tables.
func evalUnary(op string, v ir.Value) ir.Value {
	switch op {
	case "-":
		return ir.IntValue(-v.Int)
	case "!":
		return ir.BoolValue(!v.Bool)
	case "&":
		return ir.BoolValue(reduceBool(v, func(a, b bool) bool { return a && b }, true))
	case "|":
		return ir.BoolValue(reduceBool(v, func(a, b bool) bool { return a || b }, false))
	case "^":
		return ir.BoolValue(reduceBool(v, func(a, b bool) bool { return a != b }, false))
	default:
		return ir.UnsetValue()
	}
}

func reduceBool(v ir.Value, op func(a, b bool) bool, identity bool) bool {
	if v.Kind != ir.ValueArray {
		return v.Bool
	}
	acc := identity
	for i, elem := range v.Array {
		if i == 0 {
			acc = elem.Bool
			continue
		}
		acc = op(acc, elem.Bool)
	}
	return acc
}

// evalBinary returns ok=false only for a generative division/modulo by
// zero, letting the
// caller attach a diag.KindDivByZero at the right span.
func evalBinary(op string, l, r ir.Value) (ir.Value, bool) {
	switch op {
	case "+":
		return ir.IntValue(l.Int + r.Int), true
	case "-":
		return ir.IntValue(l.Int - r.Int), true
	case "*":
		return ir.IntValue(l.Int * r.Int), true
	case "/":
		if r.Int == 0 {
			return ir.UnsetValue(), false
		}
		return ir.IntValue(l.Int / r.Int), true
	case "%":
		if r.Int == 0 {
			return ir.UnsetValue(), false
		}
		return ir.IntValue(l.Int % r.Int), true
	case "==":
		return ir.BoolValue(valuesEqual(l, r)), true
	case "!=":
		return ir.BoolValue(!valuesEqual(l, r)), true
	case "<":
		return ir.BoolValue(l.Int < r.Int), true
	case "<=":
		return ir.BoolValue(l.Int <= r.Int), true
	case ">":
		return ir.BoolValue(l.Int > r.Int), true
	case ">=":
		return ir.BoolValue(l.Int >= r.Int), true
	case "&&":
		return ir.BoolValue(l.Bool && r.Bool), true
	case "||":
		return ir.BoolValue(l.Bool || r.Bool), true
	case "^^":
		return ir.BoolValue(l.Bool != r.Bool), true
	default:
		return ir.UnsetValue(), true
	}
}

func valuesEqual(l, r ir.Value) bool {
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case ir.ValueInt:
		return l.Int == r.Int
	case ir.ValueBool:
		return l.Bool == r.Bool
	default:
		return false
	}
}
