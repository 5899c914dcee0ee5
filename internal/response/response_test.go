package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestOK(t *testing.T) {
	r := OK(3)
	if !r.Success {
		t.Fatal("expected success")
	}
	v, ok := r.Value()
	if !ok || v != 3 {
		t.Errorf("Value() = %d, %v; want 3, true", v, ok)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestEmpty(t *testing.T) {
	r := Empty[map[string]any]()
	if !r.Success {
		t.Fatal("expected success")
	}
	if _, ok := r.Value(); ok {
		t.Error("empty envelope must not report a value")
	}
	b, _ := json.Marshal(r)
	if string(b) != `{"success":true}` {
		t.Errorf("json = %s", b)
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"with message", errors.New("engine: unavailable"), "engine: unavailable"},
		{"nil error", nil, "unknown error"},
		{"empty message", errors.New(""), "unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Fail[int](tt.err)
			if r.Success {
				t.Fatal("failure must not be successful")
			}
			if r.Error != tt.want {
				t.Errorf("Error = %q, want %q", r.Error, tt.want)
			}
			if _, ok := r.Value(); ok {
				t.Error("failure must not report a value")
			}
			if r.Err() == nil || r.Err().Error() != tt.want {
				t.Errorf("Err() = %v", r.Err())
			}
		})
	}
}

func TestFromError(t *testing.T) {
	if r := FromError(5, nil); !r.Success || *r.Result != 5 {
		t.Errorf("FromError(5, nil) = %+v", r)
	}
	if r := FromError(5, errors.New("boom")); r.Success || r.Result != nil {
		t.Errorf("FromError(5, err) = %+v", r)
	}
}

func TestJSONShape(t *testing.T) {
	b, _ := json.Marshal(OK(map[string]int{"count": 2}))
	if string(b) != `{"success":true,"result":{"count":2}}` {
		t.Errorf("ok json = %s", b)
	}
	b, _ = json.Marshal(Fail[int](errors.New("boom")))
	if string(b) != `{"success":false,"error":"boom"}` {
		t.Errorf("fail json = %s", b)
	}
}

func TestErr_KeepsChain(t *testing.T) {
	sentinel := errors.New("not found")
	r := Fail[int](fmt.Errorf("get doc: %w", sentinel))
	if !errors.Is(r.Err(), sentinel) {
		t.Errorf("Err() = %v, want it to wrap the sentinel", r.Err())
	}

	decoded := Response[int]{Error: r.Error}
	if errors.Is(decoded.Err(), sentinel) {
		t.Error("a decoded envelope has no chain")
	}
	if decoded.Err().Error() != "get doc: not found" {
		t.Errorf("Err() = %v", decoded.Err())
	}
}
