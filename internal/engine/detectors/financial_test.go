package detectors

import (
	"context"
	"testing"
)

func TestFinancial_Detect(t *testing.T) {
	d := NewFinancial()

	out, err := d.Detect(context.Background(), engineInput("this is a guaranteed return with no risk"))
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
