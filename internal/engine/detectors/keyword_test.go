package detectors

import (
	"context"
	"testing"

	"github.com/sentineldev/modgate/internal/engine"
)

func TestKeyword_Detect(t *testing.T) {
	d := NewKeyword()

	in := engine.DetectInput{
		Text:     "Send 1 BTC to this address and double your money fast",
		Patterns: []string{"double your money", "send bitcoin"},
	}
	out, err := d.Detect(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Triggered {
		t.Fatal("expected trigger on 'double your money'")
	}
	if len(out.Tokens) != 1 || out.Tokens[0] != "double your money" {
		t.Errorf("Tokens = %v, want [double your money]", out.Tokens)
	}
}

func TestKeyword_NoMatch(t *testing.T) {
	d := NewKeyword()
	in := engine.DetectInput{Text: "hello world", Patterns: []string{"extremist"}}
	out, err := d.Detect(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Triggered {
		t.Error("expected no trigger")
	}
}
