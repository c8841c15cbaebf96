package models

import "time"

// The bundle types below are the serialized form of everything a
// predict run needs from a train run: the fitted cluster model, the
// per-tier quantile regressors, and the exact feature column lists.
// Inference loads the bundle and reuses it verbatim, never refits.

// OneHotSpec pins a fitted one-hot encoding: the categorical columns in
// order, and the sorted category vocabulary per column. Categories not
// in the vocabulary encode to all zeros.
type OneHotSpec struct {
	Cols       []string            `json:"cols"`
	Categories map[string][]string `json:"categories"`
}

// KMeansSpec is a fitted partition clustering model.
type KMeansSpec struct {
	K         int         `json:"k"`
	Seed      int64       `json:"seed"`
	Centroids [][]float64 `json:"centroids"`
}

// QuantileSpec is one fitted linear quantile regressor.
// Mean/Std carry the per-column standardization applied at fit time.
type QuantileSpec struct {
	Tau     float64   `json:"tau"`
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
}

// ClusterModelSpec couples the DNA encoder with its k-means model.
type ClusterModelSpec struct {
	Encoder OneHotSpec `json:"encoder"`
	KMeans  KMeansSpec `json:"kmeans"`
}

// TierModelSpec holds the fitted regressors for one price tier,
// one per quantile level, keyed by the formatted level ("0.2", "0.5", "0.8").
type TierModelSpec struct {
	Encoder   OneHotSpec              `json:"encoder"`
	Quantiles map[string]QuantileSpec `json:"quantiles"`
}

// ModelBundle is the versioned training artifact.
type ModelBundle struct {
	AsOf           time.Time `json:"as_of"`
	HorizonDays    int       `json:"horizon_days"`
	MinHistoryDays int       `json:"min_history_days"`
	NClusters      int       `json:"n_clusters"`
	TierLowMax     float64   `json:"tier_low_max"`
	TierMidMax     float64   `json:"tier_mid_max"`

	CatCols []string `json:"cat_cols"`
	NumCols []string `json:"num_cols"`

	Cluster ClusterModelSpec         `json:"cluster"`
	Tiers   map[string]TierModelSpec `json:"tiers"`
}
