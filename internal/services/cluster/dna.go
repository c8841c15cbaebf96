package cluster

import (
	"fmt"
	"time"

	"CardPull/internal/domain/models"
	"CardPull/internal/services/encoding"
)

// DNA cluster feature columns: categorical attributes one-hot encoded,
// numeric attributes passed through unscaled.
var dnaCatCols = []string{"rarity", "printing", "color", "set_id"}

// DNAClusterer groups cards into cohorts by their static attributes.
// The cohort id ("DNA cluster") is later fed to the tier models as a
// family-resemblance feature.
type DNAClusterer struct {
	NClusters int
	Seed      int64
	BatchSize int
	MaxIter   int
}

func NewDNAClusterer(nClusters int, seed int64, batchSize, maxIter int) *DNAClusterer {
	return &DNAClusterer{NClusters: nClusters, Seed: seed, BatchSize: batchSize, MaxIter: maxIter}
}

// Fit learns the encoder vocabulary and cluster centroids from the
// catalog and returns the model plus per-card assignments (in input
// order). Fitting on an empty catalog is a fatal precondition failure.
func (c *DNAClusterer) Fit(cards []models.CardMeta, asOf time.Time) (models.ClusterModelSpec, []int, error) {
	if len(cards) == 0 {
		return models.ClusterModelSpec{}, nil, fmt.Errorf("dna cluster: no cards to fit")
	}

	catRows := make([][]string, len(cards))
	for i, card := range cards {
		catRows[i] = dnaCatRow(card)
	}
	enc, err := encoding.FitOneHot(dnaCatCols, catRows)
	if err != nil {
		return models.ClusterModelSpec{}, nil, fmt.Errorf("dna cluster: %w", err)
	}

	x, err := dnaMatrix(enc, cards, asOf)
	if err != nil {
		return models.ClusterModelSpec{}, nil, err
	}

	km, err := FitKMeans(x, c.NClusters, c.Seed, c.BatchSize, c.MaxIter)
	if err != nil {
		return models.ClusterModelSpec{}, nil, fmt.Errorf("dna cluster: %w", err)
	}

	spec := models.ClusterModelSpec{Encoder: enc, KMeans: km}
	assign, err := PredictKMeans(km, x)
	if err != nil {
		return models.ClusterModelSpec{}, nil, fmt.Errorf("dna cluster: %w", err)
	}
	return spec, assign, nil
}

// Predict assigns cohort ids using a previously fitted model. Unknown
// categorical values encode to zeros; no re-fit ever happens here.
func (c *DNAClusterer) Predict(spec models.ClusterModelSpec, cards []models.CardMeta, asOf time.Time) ([]int, error) {
	x, err := dnaMatrix(spec.Encoder, cards, asOf)
	if err != nil {
		return nil, err
	}
	assign, err := PredictKMeans(spec.KMeans, x)
	if err != nil {
		return nil, fmt.Errorf("dna cluster: %w", err)
	}
	return assign, nil
}

func dnaCatRow(card models.CardMeta) []string {
	return []string{card.Rarity, card.Printing, card.Color, card.SetID}
}

func dnaMatrix(enc models.OneHotSpec, cards []models.CardMeta, asOf time.Time) ([][]float64, error) {
	x := make([][]float64, len(cards))
	for i, card := range cards {
		row, err := encoding.Transform(enc, dnaCatRow(card))
		if err != nil {
			return nil, fmt.Errorf("dna cluster: %w", err)
		}
		row = append(row, float64(card.Alternate), card.AgeWeeks(asOf))
		x[i] = row
	}
	return x, nil
}
