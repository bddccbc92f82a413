package detectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sentineldev/modgate/internal/engine"
	"go.uber.org/zap"
)

// toxicityLabels is the fixed six-label score map the moderation contract requires.
var toxicityLabels = []string{
	"toxicity", "severe_toxicity", "obscene", "threat", "insult", "identity_hate",
}

const defaultToxicityThreshold = 0.7

// Scorer produces a score in [0,1] per toxicityLabels for a piece of
// text. LexiconScorer and RemoteScorer are the two implementations;
// Toxicity is indifferent to which one it holds.
type Scorer interface {
	Score(ctx context.Context, text string) (map[string]float64, error)
}

// Toxicity drives TOXICITY rules: the rule's threshold
// (default 0.7 when absent) is compared against the max of the six
// label scores returned by the configured Scorer.
type Toxicity struct {
	scorer Scorer
	logger *zap.Logger
}

func NewToxicity(scorer Scorer, logger *zap.Logger) *Toxicity {
	return &Toxicity{scorer: scorer, logger: logger}
}

func (d *Toxicity) Detect(ctx context.Context, in engine.DetectInput) (engine.DetectOutcome, error) {
	threshold := in.Threshold
	if threshold <= 0 {
		threshold = defaultToxicityThreshold
	}

	scores, err := d.scorer.Score(ctx, in.Text)
	if err != nil {
		// Fail-open per the moderation contract: report not-toxic but let the caller
		// count the failure against the detector-error metric.
		d.logger.Warn("toxicity scorer failed, failing open", zap.Error(err))
		cause := engine.CauseModelError
		if ctx.Err() != nil {
			cause = engine.CauseTimeout
		}
		return engine.DetectOutcome{}, &engine.CausedError{Cause: cause, Err: err}
	}

	var maxScore float64
	var maxLabel string
	for _, label := range toxicityLabels {
		if s := scores[label]; s > maxScore {
			maxScore = s
			maxLabel = label
		}
	}

	if maxScore < threshold {
		return engine.DetectOutcome{Score: maxScore}, nil
	}

	return engine.DetectOutcome{
		Triggered: true,
		Score:     maxScore,
		Detail:    fmt.Sprintf("toxicity label %q scored %.2f (threshold %.2f)", maxLabel, maxScore, threshold),
	}, nil
}

// LexiconScorer is the default, dependency-free Scorer: a weighted
// pattern table mapped onto the six toxicity labels, in the same
// substring-scan idiom as the built-in financial/medical vocabularies.
// It is deterministic and holds no mutable state after construction.
type LexiconScorer struct {
	entries []lexiconEntry
}

type lexiconEntry struct {
	term   string
	label  string
	weight float64
}

func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{entries: defaultLexicon}
}

var defaultLexicon = []lexiconEntry{
	{"i hate you", "toxicity", 0.75},
	{"you are worthless", "insult", 0.8},
	{"you are stupid", "insult", 0.7},
	{"idiot", "insult", 0.6},
	{"shut up", "toxicity", 0.5},
	{"kill yourself", "severe_toxicity", 0.97},
	{"i will kill you", "threat", 0.95},
	{"i will hurt you", "threat", 0.9},
	{"go die", "threat", 0.85},
	{"subhuman", "identity_hate", 0.9},
	{"go back to your country", "identity_hate", 0.85},
}

func (s *LexiconScorer) Score(ctx context.Context, text string) (map[string]float64, error) {
	lower := strings.ToLower(text)
	scores := make(map[string]float64, len(toxicityLabels))

	for _, e := range s.entries {
		if ctx.Err() != nil {
			break
		}
		if !strings.Contains(lower, e.term) {
			continue
		}
		if e.weight > scores[e.label] {
			scores[e.label] = e.weight
		}
	}

	return scores, nil
}

// RemoteScorer delegates scoring to an external HTTP/JSON model
// endpoint, wired in via TOXICITY_MODEL_ENDPOINT. It fails open: any
// transport, status, or decode error surfaces as an error to the
// caller (Toxicity.Detect) rather than panicking or blocking, matching
// the fail-open contract of the moderation contract.
type RemoteScorer struct {
	endpoint string
	client   *http.Client
}

func NewRemoteScorer(endpoint string, client *http.Client) *RemoteScorer {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	return &RemoteScorer{endpoint: endpoint, client: client}
}

type remoteScoreRequest struct {
	Input string `json:"input"`
}

type remoteScoreResponse struct {
	Scores map[string]float64 `json:"scores"`
}

func (s *RemoteScorer) Score(ctx context.Context, text string) (map[string]float64, error) {
	body, err := json.Marshal(remoteScoreRequest{Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal remote scorer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build remote scorer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call remote scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote scorer returned status %d", resp.StatusCode)
	}

	var parsed remoteScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode remote scorer response: %w", err)
	}

	return parsed.Scores, nil
}
