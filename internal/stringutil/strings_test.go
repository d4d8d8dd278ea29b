package stringutil

import (
	"reflect"
	"testing"
)

func TestIsNumeric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Valid digits", "123456", true},
		{"Roll number", "07", true},
		{"Empty string", "", false},
		{"Contains letter", "123a456", false},
		{"Contains space", "123 456", false},
		{"Hangul", "김가령", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsNumeric(tt.input)
			if got != tt.want {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	// "가" decomposed into conjoining jamo must compose back to the precomposed syllable
	decomposed := "\u1100\u1161령"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  김가령 ", "김가령"},
		{"collapses spaces", "01   김가령", "01 김가령"},
		{"composes jamo", decomposed, "가령"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitRollNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		wantRoll string
		wantName string
	}{
		{"01 김가령", "01", "김가령"},
		{"김가령", "", "김가령"},
		{"A1 김가령", "", "A1 김가령"},
		{"12", "", "12"},
	}

	for _, tt := range tests {
		roll, name := SplitRollNumber(tt.input)
		if roll != tt.wantRoll || name != tt.wantName {
			t.Errorf("SplitRollNumber(%q) = (%q, %q), want (%q, %q)",
				tt.input, roll, name, tt.wantRoll, tt.wantName)
		}
	}
}

func TestSortNames(t *testing.T) {
	t.Parallel()

	in := []string{"최민준", "김가령", "정하윤", "이서연", "박지우"}
	got := SortNames(in)
	want := []string{"김가령", "박지우", "이서연", "정하윤", "최민준"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortNames() = %v, want %v", got, want)
	}
	if in[0] != "최민준" {
		t.Error("SortNames() modified its input")
	}

	numbered := SortNames([]string{"10 김가령", "2 이서연"})
	if numbered[0] != "2 이서연" {
		t.Errorf("SortNames() numeric order = %v, want 2 before 10", numbered)
	}

	if got := SortNames(nil); got == nil || len(got) != 0 {
		t.Errorf("SortNames(nil) = %#v, want empty non-nil slice", got)
	}
}
