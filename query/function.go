package query

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Function is a scalar function that can be evaluated over Values.
type Function interface {
	// Name returns the canonical lower-case function name
	Name() string
	// MinArity returns the minimum number of arguments
	MinArity() int
	// MaxArity returns the maximum number of arguments (-1 for unlimited)
	MaxArity() int
	// Evaluate evaluates the function with the given arguments
	Evaluate(args []Value) (Value, error)
}

// FunctionRegistry manages function lookup and registration
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry creates a new function registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register registers a function
func (r *FunctionRegistry) Register(f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToLower(f.Name())] = f
}

// Get retrieves a function by name (case-insensitive)
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, exists := r.functions[strings.ToLower(name)]
	return f, exists
}

// Call looks up a function by name, validates the argument count
// against its arity bounds, and evaluates it.
func (r *FunctionRegistry) Call(name string, args []Value) (Value, error) {
	fn, exists := r.Get(name)
	if !exists {
		return Value{}, fmt.Errorf("unknown function: %s", name)
	}

	argCount := len(args)
	if min := fn.MinArity(); min >= 0 && argCount < min {
		return Value{}, fmt.Errorf("function %s: expected at least %d arguments, got %d", fn.Name(), min, argCount)
	}
	if max := fn.MaxArity(); max >= 0 && argCount > max {
		return Value{}, fmt.Errorf("function %s: expected at most %d arguments, got %d", fn.Name(), max, argCount)
	}

	return fn.Evaluate(args)
}

// globalRegistry is the default function registry
var globalRegistry *FunctionRegistry

func init() {
	globalRegistry = NewFunctionRegistry()

	// Register string functions
	globalRegistry.Register(&UpperFunc{})
	globalRegistry.Register(&LowerFunc{})
	globalRegistry.Register(&LengthFunc{})
	globalRegistry.Register(&TrimFunc{})
	globalRegistry.Register(&LTrimFunc{})
	globalRegistry.Register(&RTrimFunc{})
	globalRegistry.Register(&ConcatFunc{})
	globalRegistry.Register(&SubstrFunc{})
	globalRegistry.Register(&ReplaceFunc{})

	// Register math functions
	globalRegistry.Register(&AbsFunc{})
	globalRegistry.Register(&RoundFunc{})
	globalRegistry.Register(&CeilFunc{})
	globalRegistry.Register(&FloorFunc{})
	globalRegistry.Register(&ModFunc{})
	globalRegistry.Register(&SqrtFunc{})
	globalRegistry.Register(&PowFunc{})
}

// GetGlobalRegistry returns the global function registry
func GetGlobalRegistry() *FunctionRegistry {
	return globalRegistry
}

// anyNull reports whether any argument is Null. Every registered
// function except concat returns Null when this is true.
func anyNull(args []Value) bool {
	for _, a := range args {
		if a.IsNull() {
			return true
		}
	}
	return false
}

// valueText converts a non-Null value to its string form.
func valueText(v Value) string {
	switch v.Kind() {
	case KindText:
		return v.Text()
	case KindInt64:
		return strconv.FormatInt(v.Int(), 10)
	case KindFloat64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool())
	default:
		return ""
	}
}

// valueNumber converts a non-Null value to a float64. Text values are
// parsed; booleans are rejected.
func valueNumber(v Value) (float64, error) {
	switch v.Kind() {
	case KindInt64:
		return float64(v.Int()), nil
	case KindFloat64:
		return v.Float(), nil
	case KindText:
		n, err := strconv.ParseFloat(v.Text(), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to a number", v.Text())
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot convert %s to a number", v.Kind())
	}
}
