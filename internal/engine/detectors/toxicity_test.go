package detectors

import (
	"context"
	"errors"
	"testing"

	"github.com/sentineldev/modgate/internal/engine"
	"go.uber.org/zap"
)

func TestToxicity_LexiconScorer_Triggers(t *testing.T) {
	d := NewToxicity(NewLexiconScorer(), zap.NewNop())

	out, err := d.Detect(context.Background(), engine.DetectInput{
		Text:      "i will kill you",
		Threshold: 0.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Triggered {
		t.Fatal("expected trigger")
	}
	if out.Score < 0.7 {
		t.Errorf("Score = %v, want >= 0.7", out.Score)
	}
}

func TestToxicity_BelowThreshold(t *testing.T) {
	d := NewToxicity(NewLexiconScorer(), zap.NewNop())

	out, err := d.Detect(context.Background(), engine.DetectInput{
		Text:      "shut up",
		Threshold: 0.9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Triggered {
		t.Error("score 0.5 must not trigger a 0.9 threshold")
	}
}

func TestToxicity_DefaultThreshold(t *testing.T) {
	d := NewToxicity(NewLexiconScorer(), zap.NewNop())

	out, err := d.Detect(context.Background(), engine.DetectInput{Text: "you are stupid"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Triggered {
		t.Error("score 0.7 must trigger the default 0.7 threshold (>=, not >)")
	}
}

type failingScorer struct{}

func (failingScorer) Score(ctx context.Context, text string) (map[string]float64, error) {
	return nil, errors.New("model unavailable")
}

func TestToxicity_FailsOpen(t *testing.T) {
	d := NewToxicity(failingScorer{}, zap.NewNop())

	out, err := d.Detect(context.Background(), engine.DetectInput{Text: "anything"})
	if err == nil {
		t.Fatal("expected error surfaced for metrics accounting")
	}
	if out.Triggered {
		t.Error("fail-open must never trigger")
	}
}
