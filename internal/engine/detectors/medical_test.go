package detectors

import (
	"context"
	"testing"
)

func TestMedical_Detect(t *testing.T) {
	d := NewMedical()

	out, err := d.Detect(context.Background(), engineInput("your diagnosis and treatment plan are ready"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Triggered {
		t.Fatal("expected trigger")
	}

	out, err = d.Detect(context.Background(), engineInput("the weather is sunny"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Triggered {
		t.Error("expected no trigger")
	}
}
