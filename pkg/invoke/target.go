// Package invoke wraps bound Go functions for reflective invocation.
// All reflection happens once, when a Target is constructed during
// discovery; dispatch only calls the pre-extracted function value.
package invoke

import (
	"fmt"
	"reflect"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Target is an opaque invocable reference to a bound function.
// Parameter and return shapes are extracted at construction so that
// callers never need reflection of their own at match time.
type Target struct {
	fn     reflect.Value
	in     []reflect.Type
	result reflect.Type // first non-error return, nil if none
	hasErr bool         // trailing error return present
	name   string
}

// NewTarget wraps fn for later invocation. fn must be a non-variadic
// function with at most one non-error return value; a trailing error
// return is surfaced through Call's error.
func NewTarget(fn any) (*Target, error) {
	if fn == nil {
		return nil, fmt.Errorf("target is nil")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("target is %s, not a function", t.Kind())
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("variadic targets are not supported")
	}

	in := make([]reflect.Type, t.NumIn())
	for i := range in {
		in[i] = t.In(i)
	}
	tgt := &Target{fn: v, in: in, name: runtimeName(v)}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errType {
			tgt.hasErr = true
		} else {
			tgt.result = t.Out(0)
		}
	case 2:
		if t.Out(1) != errType {
			return nil, fmt.Errorf("second return value must be error, got %s", t.Out(1))
		}
		tgt.result = t.Out(0)
		tgt.hasErr = true
	default:
		return nil, fmt.Errorf("too many return values (%d, max 2)", t.NumOut())
	}
	return tgt, nil
}

func runtimeName(v reflect.Value) string {
	return v.Type().String()
}

// NumIn returns the number of declared parameters.
func (t *Target) NumIn() int { return len(t.in) }

// In returns the type of parameter i.
func (t *Target) In(i int) reflect.Type { return t.in[i] }

// Result returns the first non-error return type, or nil if the
// function returns nothing (or only an error).
func (t *Target) Result() reflect.Type { return t.result }

// Call invokes the wrapped function with args. A panic inside the
// function is recovered and returned as an error; a trailing error
// return is unwrapped into Call's error result.
func (t *Target) Call(args []reflect.Value) (result reflect.Value, err error) {
	if len(args) != len(t.in) {
		return reflect.Value{}, fmt.Errorf("%s takes %d arguments, got %d", t.name, len(t.in), len(args))
	}
	for i, a := range args {
		if !a.Type().AssignableTo(t.in[i]) {
			return reflect.Value{}, fmt.Errorf("%s argument %d: %s is not assignable to %s", t.name, i, a.Type(), t.in[i])
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	out := t.fn.Call(args)
	if t.hasErr {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}
	if t.result != nil {
		result = out[0]
	}
	return result, err
}
