package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"plain", "Need O+ blood urgently", "Need O+ blood urgently"},
		{"trims", "  hello  ", "hello"},
		{"script removed", "Please help<script>alert('x')</script>", "Please help"},
		{"tags stripped", "<b>Urgent</b> case", "Urgent case"},
		{"ampersand kept", "A & B", "A & B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	if got := Line("  Dhaka   Medical\nCollege "); got != "Dhaka Medical College" {
		t.Errorf("Line = %q", got)
	}
}
