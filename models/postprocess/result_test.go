package postprocess

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/care-symbols/models"
)

func TestSelectExample(t *testing.T) {
	got := Select([]float32{0.9, 0.05, 0.6, 0.5}, []string{"A", "B", "C", "D"}, 0.5, 2)

	assert.Equal(t, []Prediction{
		{Label: "A", Confidence: 0.9, Index: 0},
		{Label: "C", Confidence: 0.6, Index: 2},
	}, got)
}

func TestSelectInclusiveThreshold(t *testing.T) {
	got := Select([]float32{0.9, 0.05, 0.6, 0.5}, []string{"A", "B", "C", "D"}, 0.5, 5)

	require.Len(t, got, 3)
	assert.Equal(t, "D", got[2].Label, "a score equal to the threshold is kept")
}

func TestSelectNothingPasses(t *testing.T) {
	got := Select([]float32{0.1, 0.2}, []string{"A", "B"}, 0.5, 5)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectNonPositiveTopK(t *testing.T) {
	assert.Empty(t, Select([]float32{0.9}, []string{"A"}, 0.1, 0))
	assert.Empty(t, Select([]float32{0.9}, []string{"A"}, 0.1, -3))
}

func TestSelectSyntheticLabel(t *testing.T) {
	got := Select([]float32{0.1, 0.8, 0.7}, []string{"A"}, 0.5, 5)

	require.Len(t, got, 2)
	assert.Equal(t, "Class_1", got[0].Label)
	assert.Equal(t, "Class_2", got[1].Label)
}

func TestSelectCareSymbolLabels(t *testing.T) {
	scores := make([]float32, len(models.CareSymbolClasses)+1)
	scores[1] = 0.9
	scores[len(models.CareSymbolClasses)] = 0.8

	got := Select(scores, models.CareSymbolClasses, 0.5, 5)

	require.Len(t, got, 2)
	assert.Equal(t, "Cool Iron", got[0].Label)
	assert.Equal(t, "Class_39", got[1].Label)
}

func TestSelectTieBreakByIndex(t *testing.T) {
	got := Select([]float32{0.7, 0.9, 0.7, 0.7}, []string{"A", "B", "C", "D"}, 0.5, 3)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{got[0].Label, got[1].Label, got[2].Label})
}

func TestSelectSkipsNaN(t *testing.T) {
	got := Select([]float32{math32.NaN(), 0.6}, []string{"A", "B"}, 0, 5)

	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Label)
}

func TestSelectProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	labels := make([]string, 39)
	for i := range labels {
		labels[i] = string(rune('a' + i%26))
	}

	for iter := 0; iter < 500; iter++ {
		scores := make([]float32, 20+rng.Intn(30))
		for i := range scores {
			scores[i] = rng.Float32()
		}
		threshold := rng.Float32()
		topK := rng.Intn(10)

		got := Select(scores, labels, threshold, topK)

		assert.LessOrEqual(t, len(got), topK)
		for i, p := range got {
			assert.GreaterOrEqual(t, p.Confidence, threshold)
			assert.Equal(t, scores[p.Index], p.Confidence)
			if i > 0 {
				assert.LessOrEqual(t, p.Confidence, got[i-1].Confidence)
			}
		}
	}
}
