package detectors

import "github.com/sentineldev/modgate/internal/engine"

func engineInput(text string) engine.DetectInput {
	return engine.DetectInput{Text: text}
}
