package stage

import (
	"context"
	"testing"
)

func TestLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"fetch", "Fetch"},
		{"static_analysis", "Static Analysis"},
		{"llm_analysis", "Llm Analysis"},
		{"error_handling", "Error Handling"},
		{"  parse  ", "Parse"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Label(tc.in); got != tc.want {
			t.Errorf("Label(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFuncHandler(t *testing.T) {
	handler := Func{StageName: "fetch"}
	if handler.Name() != "fetch" {
		t.Fatalf("unexpected name %q", handler.Name())
	}
	if err := handler.Execute(context.Background(), nil); err != nil {
		t.Fatalf("nil Run should be a no-op: %v", err)
	}
	health := handler.HealthCheck(context.Background())
	if !health.Ready || health.Name != "fetch" {
		t.Fatalf("unexpected health %+v", health)
	}
}
