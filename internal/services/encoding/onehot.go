package encoding

import (
	"fmt"
	"sort"

	"CardPull/internal/domain/models"
)

// FitOneHot learns the category vocabulary for each column from the
// given rows. Vocabularies are sorted so the encoded column order is
// deterministic and survives serialization.
func FitOneHot(cols []string, rows [][]string) (models.OneHotSpec, error) {
	if len(cols) == 0 {
		return models.OneHotSpec{}, fmt.Errorf("onehot: no columns")
	}
	seen := make([]map[string]struct{}, len(cols))
	for i := range seen {
		seen[i] = make(map[string]struct{})
	}
	for _, row := range rows {
		if len(row) != len(cols) {
			return models.OneHotSpec{}, fmt.Errorf("onehot: row width %d, want %d", len(row), len(cols))
		}
		for i, v := range row {
			seen[i][v] = struct{}{}
		}
	}

	spec := models.OneHotSpec{
		Cols:       append([]string(nil), cols...),
		Categories: make(map[string][]string, len(cols)),
	}
	for i, col := range cols {
		cats := make([]string, 0, len(seen[i]))
		for v := range seen[i] {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		spec.Categories[col] = cats
	}
	return spec, nil
}

// Width returns the encoded vector length for a fitted spec.
func Width(spec models.OneHotSpec) int {
	w := 0
	for _, col := range spec.Cols {
		w += len(spec.Categories[col])
	}
	return w
}

// Transform encodes one row against a fitted spec. Categories unseen at
// fit time encode to all zeros for their column, never an error.
func Transform(spec models.OneHotSpec, row []string) ([]float64, error) {
	if len(row) != len(spec.Cols) {
		return nil, fmt.Errorf("onehot: row width %d, want %d", len(row), len(spec.Cols))
	}
	out := make([]float64, 0, Width(spec))
	for i, col := range spec.Cols {
		cats := spec.Categories[col]
		block := make([]float64, len(cats))
		// vocabularies stay small (rarities, sets); linear scan is fine
		for j, c := range cats {
			if c == row[i] {
				block[j] = 1
				break
			}
		}
		out = append(out, block...)
	}
	return out, nil
}
