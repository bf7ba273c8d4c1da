package conversation

import "testing"

func TestIsGreeting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"hi", true},
		{"Hi", true},
		{"hi there", true},
		{"  hello  ", true},
		{"good morning", true},
		{"hey bot!", true},
		{"hi, I want to book a flight to Rome", false},
		{"I want to plan a trip", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsGreeting(tt.text); got != tt.want {
			t.Errorf("IsGreeting(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
