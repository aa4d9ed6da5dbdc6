package summary

import (
	"reflect"
	"testing"
)

func TestNormalizeCollapsesSets(t *testing.T) {
	got := EmotionSummary{
		EmotionTags:     []string{" anxiety", "sadness", "anxiety", ""},
		DominantEmotion: "  ",
		RepeatedTopics:  []string{"school", "family", "school "},
	}.Normalize()

	if !reflect.DeepEqual(got.EmotionTags, []string{"anxiety", "sadness"}) {
		t.Fatalf("unexpected emotion tags: %v", got.EmotionTags)
	}
	if !reflect.DeepEqual(got.RepeatedTopics, []string{"family", "school"}) {
		t.Fatalf("unexpected topics: %v", got.RepeatedTopics)
	}
	if got.DominantEmotion != UnknownEmotion {
		t.Fatalf("expected unknown dominant emotion, got %q", got.DominantEmotion)
	}
}

func TestFallbackIsZeroValueSummary(t *testing.T) {
	fb := Fallback()
	if len(fb.EmotionTags) != 0 || len(fb.RepeatedTopics) != 0 {
		t.Fatalf("fallback must carry empty sets: %+v", fb)
	}
	if fb.DominantEmotion != "unknown" || fb.RiskFlag || fb.IntensityScore != 0 {
		t.Fatalf("unexpected fallback: %+v", fb)
	}
}
