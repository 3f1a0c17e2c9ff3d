package query

import (
	"fmt"
	"math"
)

// Math Functions

// AbsFunc returns the absolute value of a number. Int64 input stays Int64.
type AbsFunc struct{}

func (f *AbsFunc) Name() string  { return "abs" }
func (f *AbsFunc) MinArity() int { return 1 }
func (f *AbsFunc) MaxArity() int { return 1 }
func (f *AbsFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	if args[0].Kind() == KindInt64 {
		n := args[0].Int()
		if n < 0 {
			n = -n
		}
		return IntValue(n), nil
	}
	num, err := valueNumber(args[0])
	if err != nil {
		return Value{}, fmt.Errorf("abs: %w", err)
	}
	return FloatValue(math.Abs(num)), nil
}

// RoundFunc rounds a number to the given number of decimal places
type RoundFunc struct{}

func (f *RoundFunc) Name() string  { return "round" }
func (f *RoundFunc) MinArity() int { return 1 }
func (f *RoundFunc) MaxArity() int { return 2 }
func (f *RoundFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}

	num, err := valueNumber(args[0])
	if err != nil {
		return Value{}, fmt.Errorf("round: %w", err)
	}

	// Default to 0 decimal places
	decimals := 0.0
	if len(args) == 2 {
		decimals, err = valueNumber(args[1])
		if err != nil {
			return Value{}, fmt.Errorf("round: decimals argument: %w", err)
		}
	}

	multiplier := math.Pow(10, decimals)
	return FloatValue(math.Round(num*multiplier) / multiplier), nil
}

// CeilFunc returns the smallest integer greater than or equal to a number
type CeilFunc struct{}

func (f *CeilFunc) Name() string  { return "ceil" }
func (f *CeilFunc) MinArity() int { return 1 }
func (f *CeilFunc) MaxArity() int { return 1 }
func (f *CeilFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	num, err := valueNumber(args[0])
	if err != nil {
		return Value{}, fmt.Errorf("ceil: %w", err)
	}
	return FloatValue(math.Ceil(num)), nil
}

// FloorFunc returns the largest integer less than or equal to a number
type FloorFunc struct{}

func (f *FloorFunc) Name() string  { return "floor" }
func (f *FloorFunc) MinArity() int { return 1 }
func (f *FloorFunc) MaxArity() int { return 1 }
func (f *FloorFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	num, err := valueNumber(args[0])
	if err != nil {
		return Value{}, fmt.Errorf("floor: %w", err)
	}
	return FloatValue(math.Floor(num)), nil
}

// ModFunc returns the remainder of division. An integer pair yields an
// Int64 remainder; otherwise the result is a Float64.
type ModFunc struct{}

func (f *ModFunc) Name() string  { return "mod" }
func (f *ModFunc) MinArity() int { return 2 }
func (f *ModFunc) MaxArity() int { return 2 }
func (f *ModFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}

	if args[0].Kind() == KindInt64 && args[1].Kind() == KindInt64 {
		divisor := args[1].Int()
		if divisor == 0 {
			return Value{}, fmt.Errorf("mod: division by zero")
		}
		return IntValue(args[0].Int() % divisor), nil
	}

	dividend, err := valueNumber(args[0])
	if err != nil {
		return Value{}, fmt.Errorf("mod: dividend: %w", err)
	}
	divisor, err := valueNumber(args[1])
	if err != nil {
		return Value{}, fmt.Errorf("mod: divisor: %w", err)
	}
	if divisor == 0 {
		return Value{}, fmt.Errorf("mod: division by zero")
	}
	return FloatValue(math.Mod(dividend, divisor)), nil
}

// SqrtFunc returns the square root of a number
type SqrtFunc struct{}

func (f *SqrtFunc) Name() string  { return "sqrt" }
func (f *SqrtFunc) MinArity() int { return 1 }
func (f *SqrtFunc) MaxArity() int { return 1 }
func (f *SqrtFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	num, err := valueNumber(args[0])
	if err != nil {
		return Value{}, fmt.Errorf("sqrt: %w", err)
	}
	if num < 0 {
		return Value{}, fmt.Errorf("sqrt: negative number")
	}
	return FloatValue(math.Sqrt(num)), nil
}

// PowFunc raises a number to a power
type PowFunc struct{}

func (f *PowFunc) Name() string  { return "pow" }
func (f *PowFunc) MinArity() int { return 2 }
func (f *PowFunc) MaxArity() int { return 2 }
func (f *PowFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	base, err := valueNumber(args[0])
	if err != nil {
		return Value{}, fmt.Errorf("pow: base: %w", err)
	}
	exponent, err := valueNumber(args[1])
	if err != nil {
		return Value{}, fmt.Errorf("pow: exponent: %w", err)
	}
	return FloatValue(math.Pow(base, exponent)), nil
}
