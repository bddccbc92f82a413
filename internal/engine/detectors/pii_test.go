package detectors

import (
	"context"
	"testing"
)

func TestPII_Detect(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		triggered bool
	}{
		{"clean text", "The weather is nice today.", false},
		{"email", "reach me at jane.doe@example.com", true},
		{"ssn", "my ssn is 123-45-6789", true},
		{"phone", "call me at 555-123-4567", true},
		{"credit card", "card number 4111 1111 1111 1111", true},
		{"ipv4", "the server lives at 10.0.0.1", true},
	}

	d := NewPII()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := d.Detect(context.Background(), engineInput(tt.text))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Triggered != tt.triggered {
				t.Errorf("Triggered = %v, want %v", out.Triggered, tt.triggered)
			}
		})
	}
}

func TestPII_ByTypeCounts(t *testing.T) {
	d := NewPII()
	out, err := d.Detect(context.Background(), engineInput("a@b.com and c@d.com, ssn 111-22-3333"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Triggered {
		t.Fatal("expected trigger")
	}
	if out.ByType["email"] != 2 {
		t.Errorf("email count = %d, want 2", out.ByType["email"])
	}
	if out.ByType["ssn"] != 1 {
		t.Errorf("ssn count = %d, want 1", out.ByType["ssn"])
	}
}
