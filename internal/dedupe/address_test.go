package dedupe

import (
	"reflect"
	"testing"
)

func TestExactKeyTrims(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123 Main St", "123 Main St"},
		{"  123 Main St  ", "123 Main St"},
		{"", ""},
		{"   ", ""},
		{"\t\n", ""},
	}

	for _, tt := range tests {
		if got := ExactKey(tt.input); got != tt.want {
			t.Errorf("ExactKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSameAddress(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"123 Main St", "123 MAIN ST", true},
		{"123 Main St", "  123 main st  ", true},
		{"123 Main St", "124 Main St", false},
		{"", "", false},
		{"   ", "\t", false},
		{"123 Main St", "", false},
		// Unicode case folding
		{"Straße 5", "STRASSE 5", false},
		{"Ödegårdsvägen 12", "ödegårdsvägen 12", true},
	}

	for _, tt := range tests {
		if got := SameAddress(tt.a, tt.b); got != tt.want {
			t.Errorf("SameAddress(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"drops short tokens", "123 Main St", []string{"123", "main"}},
		{"empty input", "", nil},
		{"blank input", "   \t  ", nil},
		{"only short tokens", "a bc #", nil},
		{"keeps order", "Riverside Plaza Tower", []string{"riverside", "plaza", "tower"}},
		{"punctuation is kept inside tokens", "12-b Baker St., Apt 4", []string{"12-b", "baker", "st.,", "apt"}},
		{"unicode", "北区 王子本町 1丁目", []string{"北区", "王子本町", "1丁目"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokens(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
