package invoke

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNewTargetRejectsNonFunctions(t *testing.T) {
	if _, err := NewTarget(nil); err == nil {
		t.Error("expected error for nil target")
	}
	if _, err := NewTarget(42); err == nil {
		t.Error("expected error for non-function target")
	}
	if _, err := NewTarget(func(args ...string) {}); err == nil {
		t.Error("expected error for variadic target")
	}
}

func TestNewTargetRejectsBadReturns(t *testing.T) {
	if _, err := NewTarget(func() (int, string) { return 0, "" }); err == nil {
		t.Error("expected error when second return is not error")
	}
	if _, err := NewTarget(func() (int, string, error) { return 0, "", nil }); err == nil {
		t.Error("expected error for three return values")
	}
}

func TestTargetShapes(t *testing.T) {
	tgt, err := NewTarget(func(a string, b int) (float64, error) { return 0, nil })
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	if tgt.NumIn() != 2 {
		t.Errorf("NumIn = %d, want 2", tgt.NumIn())
	}
	if tgt.In(0).Kind() != reflect.String || tgt.In(1).Kind() != reflect.Int {
		t.Errorf("unexpected parameter types: %s, %s", tgt.In(0), tgt.In(1))
	}
	if tgt.Result() == nil || tgt.Result().Kind() != reflect.Float64 {
		t.Errorf("Result = %v, want float64", tgt.Result())
	}

	errOnly, err := NewTarget(func() error { return nil })
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	if errOnly.Result() != nil {
		t.Errorf("error-only target should have nil Result, got %v", errOnly.Result())
	}
}

func TestCallArityAndAssignability(t *testing.T) {
	tgt, err := NewTarget(func(n int) error { return nil })
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	if _, err := tgt.Call(nil); err == nil {
		t.Error("expected arity error for zero arguments")
	}
	if _, err := tgt.Call([]reflect.Value{reflect.ValueOf("five")}); err == nil {
		t.Error("expected assignability error for string argument")
	}
}

func TestCallSurfacesErrorReturn(t *testing.T) {
	boom := errors.New("boom")
	tgt, err := NewTarget(func() error { return boom })
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	if _, err := tgt.Call(nil); !errors.Is(err, boom) {
		t.Errorf("Call error = %v, want %v", err, boom)
	}
}

func TestCallRecoversPanic(t *testing.T) {
	tgt, err := NewTarget(func() { panic("kaboom") })
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	_, err = tgt.Call(nil)
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("Call error = %v, want recovered panic", err)
	}
}

func TestCallReturnsResult(t *testing.T) {
	tgt, err := NewTarget(func(s string) (int, error) { return len(s), nil })
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	out, err := tgt.Call([]reflect.Value{reflect.ValueOf("four")})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Int() != 4 {
		t.Errorf("result = %d, want 4", out.Int())
	}
}
