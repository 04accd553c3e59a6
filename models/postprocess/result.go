// Package postprocess - Turns raw classifier scores into ranked predictions.
package postprocess

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/care-symbols/models"
)

const (
	// DefaultThreshold is the minimum confidence when a request sets none.
	DefaultThreshold float32 = 0.5
	// DefaultTopK is the number of predictions returned when a request sets none.
	DefaultTopK = 5
)

// Prediction is one labelled class score.
type Prediction struct {
	// The human-readable label.
	Label string `json:"label"`
	// The model confidence in [0, 1].
	Confidence float32 `json:"confidence"`
	// The class index in the model output.
	Index int `json:"-"`
}

// Select filters, ranks and truncates a confidence vector.
//
// Every index whose score is at least threshold becomes a Prediction labelled
// from labels, or "Class_<index>" when the index is past the end of the table.
// Predictions are ordered by descending confidence; equal confidences keep
// ascending class index. NaN scores never pass the threshold.
//
// Arguments:
//   - scores: The confidence vector, one entry per class index.
//   - labels: The class label table.
//   - threshold: The minimum confidence.
//   - topK: The maximum number of predictions. Values <= 0 yield none.
//
// Returns:
//   - []Prediction: The selected predictions; empty, never nil, when nothing passes.
func Select(scores []float32, labels []string, threshold float32, topK int) []Prediction {
	out := make([]Prediction, 0, min(len(scores), max(topK, 0)))
	if topK <= 0 {
		return out
	}

	var passed []Prediction
	for i, score := range scores {
		if math32.IsNaN(score) || score < threshold {
			continue
		}
		passed = append(passed, Prediction{
			Label:      labelFor(labels, i),
			Confidence: score,
			Index:      i,
		})
	}

	sort.SliceStable(passed, func(i, j int) bool {
		return passed[i].Confidence > passed[j].Confidence
	})

	if len(passed) > topK {
		passed = passed[:topK]
	}
	return append(out, passed...)
}

func labelFor(labels []string, idx int) string {
	if name := models.LookupName(labels, idx); name != "" {
		return name
	}
	return fmt.Sprintf("Class_%d", idx)
}
