package forensics

import (
	"context"
	"fmt"
	"math"
)

type Label string

const (
	LabelReal      Label = "REAL / ORIGINAL"
	LabelProcessed Label = "PROCESSED / EDITED"
	LabelFake      Label = "FAKE / MANIPULATED"
	LabelSynthetic Label = "SYNTHETIC / GRAPHIC"
)

// Trust score thresholds separating the photographic labels.
const (
	FakeBelow     = 0.35
	ProcessedUpTo = 0.70
)

func (l Label) Valid() bool {
	switch l {
	case LabelReal, LabelProcessed, LabelFake, LabelSynthetic:
		return true
	}
	return false
}

// LabelForScore maps a trust score to a photographic label.
func LabelForScore(score float64) Label {
	switch {
	case score < FakeBelow:
		return LabelFake
	case score <= ProcessedUpTo:
		return LabelProcessed
	default:
		return LabelReal
	}
}

// Verdict is the classifier's opinion of one image.
type Verdict struct {
	Label      Label              `json:"prediction"`
	TrustScore float64            `json:"trust_score"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (v *Verdict) Validate() error {
	if !v.Label.Valid() {
		return fmt.Errorf("unknown verdict label %q", v.Label)
	}
	if math.IsNaN(v.TrustScore) || v.TrustScore < 0 || v.TrustScore > 1 {
		return fmt.Errorf("trust score %v out of range [0,1]", v.TrustScore)
	}
	return nil
}

// Analyzer scores raw image bytes.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*Verdict, error)
}
