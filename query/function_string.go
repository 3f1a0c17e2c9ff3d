package query

import (
	"fmt"
	"strings"
)

// String Functions

// UpperFunc converts a string to uppercase
type UpperFunc struct{}

func (f *UpperFunc) Name() string  { return "upper" }
func (f *UpperFunc) MinArity() int { return 1 }
func (f *UpperFunc) MaxArity() int { return 1 }
func (f *UpperFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	return TextValue(strings.ToUpper(valueText(args[0]))), nil
}

// LowerFunc converts a string to lowercase
type LowerFunc struct{}

func (f *LowerFunc) Name() string  { return "lower" }
func (f *LowerFunc) MinArity() int { return 1 }
func (f *LowerFunc) MaxArity() int { return 1 }
func (f *LowerFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	return TextValue(strings.ToLower(valueText(args[0]))), nil
}

// LengthFunc returns the number of characters in a string
type LengthFunc struct{}

func (f *LengthFunc) Name() string  { return "length" }
func (f *LengthFunc) MinArity() int { return 1 }
func (f *LengthFunc) MaxArity() int { return 1 }
func (f *LengthFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	return IntValue(int64(len([]rune(valueText(args[0]))))), nil
}

// TrimFunc trims whitespace from both ends of a string
type TrimFunc struct{}

func (f *TrimFunc) Name() string  { return "trim" }
func (f *TrimFunc) MinArity() int { return 1 }
func (f *TrimFunc) MaxArity() int { return 1 }
func (f *TrimFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	return TextValue(strings.TrimSpace(valueText(args[0]))), nil
}

// LTrimFunc trims whitespace from the left side of a string
type LTrimFunc struct{}

func (f *LTrimFunc) Name() string  { return "ltrim" }
func (f *LTrimFunc) MinArity() int { return 1 }
func (f *LTrimFunc) MaxArity() int { return 1 }
func (f *LTrimFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	return TextValue(strings.TrimLeft(valueText(args[0]), " \t\n\r")), nil
}

// RTrimFunc trims whitespace from the right side of a string
type RTrimFunc struct{}

func (f *RTrimFunc) Name() string  { return "rtrim" }
func (f *RTrimFunc) MinArity() int { return 1 }
func (f *RTrimFunc) MaxArity() int { return 1 }
func (f *RTrimFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	return TextValue(strings.TrimRight(valueText(args[0]), " \t\n\r")), nil
}

// ConcatFunc concatenates its arguments, skipping Nulls
type ConcatFunc struct{}

func (f *ConcatFunc) Name() string  { return "concat" }
func (f *ConcatFunc) MinArity() int { return 1 }
func (f *ConcatFunc) MaxArity() int { return -1 } // variadic
func (f *ConcatFunc) Evaluate(args []Value) (Value, error) {
	var builder strings.Builder
	for _, arg := range args {
		if arg.IsNull() {
			continue
		}
		builder.WriteString(valueText(arg))
	}
	return TextValue(builder.String()), nil
}

// SubstrFunc extracts a substring using SQL's 1-based indexing
type SubstrFunc struct{}

func (f *SubstrFunc) Name() string  { return "substr" }
func (f *SubstrFunc) MinArity() int { return 2 }
func (f *SubstrFunc) MaxArity() int { return 3 }
func (f *SubstrFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}

	runes := []rune(valueText(args[0]))

	start, err := valueNumber(args[1])
	if err != nil {
		return Value{}, fmt.Errorf("substr: start: %w", err)
	}
	startIdx := int(start) - 1
	if startIdx < 0 {
		startIdx = 0
	}
	if startIdx >= len(runes) {
		return TextValue(""), nil
	}

	if len(args) == 3 {
		length, err := valueNumber(args[2])
		if err != nil {
			return Value{}, fmt.Errorf("substr: length: %w", err)
		}
		lengthInt := int(length)
		if lengthInt < 0 {
			return TextValue(""), nil
		}
		endIdx := startIdx + lengthInt
		if endIdx > len(runes) {
			endIdx = len(runes)
		}
		return TextValue(string(runes[startIdx:endIdx])), nil
	}

	return TextValue(string(runes[startIdx:])), nil
}

// ReplaceFunc replaces all occurrences of a substring
type ReplaceFunc struct{}

func (f *ReplaceFunc) Name() string  { return "replace" }
func (f *ReplaceFunc) MinArity() int { return 3 }
func (f *ReplaceFunc) MaxArity() int { return 3 }
func (f *ReplaceFunc) Evaluate(args []Value) (Value, error) {
	if anyNull(args) {
		return NullValue(), nil
	}
	str := valueText(args[0])
	old := valueText(args[1])
	repl := valueText(args[2])
	return TextValue(strings.ReplaceAll(str, old, repl)), nil
}
