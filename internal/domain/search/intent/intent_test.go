package intent

import "testing"

func TestIsValid(t *testing.T) {
	tests := []struct {
		in   Intent
		want bool
	}{
		{Single, true},
		{Synthesis, true},
		{"", false},
		{"hybrid", false},
	}
	for _, tc := range tests {
		if got := tc.in.IsValid(); got != tc.want {
			t.Errorf("Intent(%q).IsValid() = %v, want %v", tc.in, got, tc.want)
		}
	}
}
