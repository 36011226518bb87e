// Package transform converts raw captured strings into typed argument
// values before step invocation.
package transform

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/ormasoftchile/stepbind/pkg/binding"
)

// Pipeline resolves a typed value for each raw capture. Lookup order:
// a regex-keyed transform whose pattern fully matches the raw text and
// whose result fits the destination type, then a type-keyed transform
// registered for the destination type, then the built-in coercions.
type Pipeline struct {
	transforms []*binding.ArgumentTransform
}

// NewPipeline builds a pipeline over registered transforms, preserving
// registration order as the tie-break among pattern transforms.
func NewPipeline(transforms []*binding.ArgumentTransform) *Pipeline {
	return &Pipeline{transforms: transforms}
}

// Convert produces a value of the target type from raw. A transform
// target raising an error (or panicking) aborts the step it serves,
// never the run; the failure is wrapped as a TransformError.
func (p *Pipeline) Convert(raw string, target reflect.Type) (reflect.Value, error) {
	for _, tr := range p.transforms {
		if tr.Pattern == nil {
			continue
		}
		if !tr.Pattern.MatchString(raw) {
			continue
		}
		if !fits(tr, target) {
			continue
		}
		return apply(tr, raw)
	}
	for _, tr := range p.transforms {
		if tr.Pattern != nil {
			continue
		}
		if !fits(tr, target) {
			continue
		}
		return apply(tr, raw)
	}
	return coerce(raw, target)
}

func fits(tr *binding.ArgumentTransform, target reflect.Type) bool {
	out := tr.Target.Result()
	return out != nil && out.AssignableTo(target)
}

func apply(tr *binding.ArgumentTransform, raw string) (reflect.Value, error) {
	out, err := tr.Target.Call([]reflect.Value{reflect.ValueOf(raw)})
	if err != nil {
		return reflect.Value{}, &binding.TransformError{Raw: raw, Cause: err}
	}
	return out, nil
}

// coerce applies the built-in conversions: every integer and float
// kind, bool, and verbatim string (including named string types).
func coerce(raw string, target reflect.Type) (reflect.Value, error) {
	v := reflect.New(target).Elem()
	switch target.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, target.Bits())
		if err != nil {
			return reflect.Value{}, &binding.TransformError{Raw: raw, Cause: err}
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, target.Bits())
		if err != nil {
			return reflect.Value{}, &binding.TransformError{Raw: raw, Cause: err}
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, target.Bits())
		if err != nil {
			return reflect.Value{}, &binding.TransformError{Raw: raw, Cause: err}
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, &binding.TransformError{Raw: raw, Cause: err}
		}
		v.SetBool(b)
	default:
		return reflect.Value{}, &binding.TransformError{
			Raw:   raw,
			Cause: fmt.Errorf("no transform registered for type %s", target),
		}
	}
	return v, nil
}

// CanConvert reports whether the pipeline could produce the target
// type at all, without invoking any transform. Used for diagnostics.
func (p *Pipeline) CanConvert(target reflect.Type) bool {
	for _, tr := range p.transforms {
		if fits(tr, target) {
			return true
		}
	}
	switch target.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
