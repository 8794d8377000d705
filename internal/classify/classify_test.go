package classify

import (
	"testing"

	"github.com/rhythmforge/rhythmcore/internal/rhythm"
)

func TestClassifyKickFullMix(t *testing.T) {
	fv := rhythm.FeatureVector{
		SubBassRatio: 0.40, BassRatio: 0.20, Centroid: 0.15, Flatness: 0.15, ZCR: 0.02, DecayMS: 40,
	}
	drum, conf := Classify(fv, VariantFullMix, nil)
	if drum != rhythm.Kick {
		t.Fatalf("expected kick, got %s (confidence %f)", drum, conf)
	}
	if conf <= 0 || conf > 0.95 {
		t.Fatalf("confidence out of range: %f", conf)
	}
}

func TestClassifyHiHatFullMix(t *testing.T) {
	fv := rhythm.FeatureVector{
		HighMidRatio: 0.20, HighRatio: 0.15, HiHatRatio: 0.10, Centroid: 0.60, DecayMS: 5, Flatness: 0.2,
	}
	drum, _ := Classify(fv, VariantFullMix, nil)
	if drum != rhythm.HiHat {
		t.Fatalf("expected hihat, got %s", drum)
	}
}

func TestClassifyTomRequiresAllThreeConditions(t *testing.T) {
	// Flatness and decay favor tom but centroid falls outside the tom
	// window, so the AND-gated bonus should not fire.
	fv := rhythm.FeatureVector{Flatness: 0.10, DecayMS: 50, Centroid: 0.60}
	drum, _ := Classify(fv, VariantFullMix, nil)
	if drum == rhythm.Tom {
		t.Fatal("tom bonus should not apply when centroid is outside its window")
	}
}

func TestClassifyVariantDPrefersBandDominance(t *testing.T) {
	fv := rhythm.FeatureVector{SubBassRatio: 0.25, BassRatio: 0.20, Centroid: 0.18}
	drum, _ := Classify(fv, VariantDrumsStem, nil)
	if drum != rhythm.Kick {
		t.Fatalf("expected kick under variant D, got %s", drum)
	}
}

func TestPatternBoostTipsCloseCall(t *testing.T) {
	// A feature vector ambiguous between kick and hihat; the on-beat boost
	// should tip it toward kick.
	fv := rhythm.FeatureVector{Centroid: 0.20, HighRatio: 0.40, DecayMS: 20}
	noBoost, _ := Classify(fv, VariantFullMix, nil)
	boosted, _ := Classify(fv, VariantFullMix, &PhaseContext{OnBeat: true})
	if noBoost != rhythm.HiHat {
		t.Fatalf("expected hihat without the boost, got %s", noBoost)
	}
	if boosted != rhythm.Kick {
		t.Fatalf("expected on-beat boost to tip toward kick, got %s", boosted)
	}
}

func TestConfidenceNeverExceedsCap(t *testing.T) {
	fv := rhythm.FeatureVector{SubBassRatio: 0.9, BassRatio: 0.9, Centroid: 0.05}
	_, conf := Classify(fv, VariantFullMix, &PhaseContext{OnBeat: true})
	if conf > 0.95 {
		t.Fatalf("confidence %f exceeds cap", conf)
	}
}
