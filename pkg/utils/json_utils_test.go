package utils

import (
	"reflect"
	"testing"
)

func TestSplitCSV(t *testing.T) {
	cases := map[string][]string{
		"":                        nil,
		" , ,":                    nil,
		"pending_diagnosis":       {"pending_diagnosis"},
		"a, b ,c":                 {"a", "b", "c"},
		"in_progress,,completed,": {"in_progress", "completed"},
	}
	for in, want := range cases {
		if got := SplitCSV(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("SplitCSV(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestToRawMessage(t *testing.T) {
	raw, err := ToRawMessage(map[string]string{"type": "job.created"})
	if err != nil {
		t.Fatalf("ToRawMessage: %v", err)
	}
	if string(raw) != `{"type":"job.created"}` {
		t.Fatalf("unexpected json %s", raw)
	}
	if _, err := ToRawMessage(make(chan int)); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
