package x11

import (
	"reflect"
	"testing"
)

func TestParseKeySequence(t *testing.T) {
	tests := []struct {
		input string
		want  [][]string
	}{
		{"a", [][]string{{"a"}}},
		{"ctrl+alt+t", [][]string{{"Control_L", "Alt_L", "t"}}},
		{"shift+a Return", [][]string{{"Shift_L", "a"}, {"Return"}}},
		{"  super+Enter   esc ", [][]string{{"Super_L", "Return"}, {"Escape"}}},
		{"F5", [][]string{{"F5"}}},
	}
	for _, tt := range tests {
		got, err := ParseKeySequence(tt.input)
		if err != nil {
			t.Errorf("ParseKeySequence(%q) error: %v", tt.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseKeySequence(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseKeySequence_Errors(t *testing.T) {
	for _, input := range []string{"", "   ", "ctrl+", "+a", "ctrl++a"} {
		if _, err := ParseKeySequence(input); err == nil {
			t.Errorf("ParseKeySequence(%q) expected error", input)
		}
	}
}
