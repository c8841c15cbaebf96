package encoding

import (
	"reflect"
	"testing"
)

func TestFitOneHotSortedVocabulary(t *testing.T) {
	spec, err := FitOneHot([]string{"rarity", "set_id"}, [][]string{
		{"rare", "OP01"},
		{"common", "OP02"},
		{"rare", "OP01"},
	})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !reflect.DeepEqual(spec.Categories["rarity"], []string{"common", "rare"}) {
		t.Fatalf("rarity vocab not sorted: %v", spec.Categories["rarity"])
	}
	if Width(spec) != 4 {
		t.Fatalf("width: want 4, got %d", Width(spec))
	}
}

func TestTransformKnownCategory(t *testing.T) {
	spec, err := FitOneHot([]string{"rarity"}, [][]string{{"common"}, {"rare"}, {"secret"}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	v, err := Transform(spec, []string{"rare"})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if !reflect.DeepEqual(v, []float64{0, 1, 0}) {
		t.Fatalf("unexpected encoding %v", v)
	}
}

func TestTransformUnknownCategoryIsZeros(t *testing.T) {
	spec, err := FitOneHot([]string{"rarity"}, [][]string{{"common"}, {"rare"}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	v, err := Transform(spec, []string{"never-seen"})
	if err != nil {
		t.Fatalf("unknown category must not error: %v", err)
	}
	if !reflect.DeepEqual(v, []float64{0, 0}) {
		t.Fatalf("unknown category should encode to zeros, got %v", v)
	}
}

func TestTransformWidthMismatch(t *testing.T) {
	spec, err := FitOneHot([]string{"rarity", "set_id"}, [][]string{{"rare", "OP01"}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := Transform(spec, []string{"rare"}); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}
