package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"CardPull/internal/domain/models"
	domrepo "CardPull/internal/domain/repository"
	pkgch "CardPull/pkg/clickhouse"
	applogger "CardPull/pkg/logger"
)

// CHMLStore persists prediction documents and the latest ranking in
// ClickHouse. Both tables are ReplacingMergeTrees: predictions are
// keyed by item id (the newest version wins, which gives us idempotent
// upserts), and the ranking table holds one logical "latest" row.
type CHMLStore struct {
	db         *sql.DB
	predsTable string
	rankTable  string
	l          *applogger.Logger
}

const rankingDocID = "latest"

func NewCHMLStore(ch *pkgch.Client, predsTable, rankTable string) *CHMLStore {
	return &CHMLStore{db: ch.DB(), predsTable: predsTable, rankTable: rankTable}
}

// SetLogger injects a structured logger.
func (s *CHMLStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHMLStore) UpsertPredictions(ctx context.Context, preds []models.Prediction) error {
	if len(preds) == 0 {
		return nil
	}
	start := time.Now()

	// Chunked multi-row VALUES inserts to limit round-trips.
	const chunkSize = 2000
	now := time.Now().UTC()
	for lo := 0; lo < len(preds); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(preds) {
			hi = len(preds)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*10)
		for _, p := range preds[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				p.ItemID, p.AsOfDate, p.Tier, int32(p.ClusterID), p.PriceNow,
				p.PredQ20, p.PredQ50, p.PredQ80, p.LastPriceDate, now,
			)
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (item_id, as_of, tier, cluster_id, price_now, pred_q20_28d, pred_q50_28d, pred_q80_28d, last_price_date, updated_at) VALUES %s",
			s.predsTable, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("upsert predictions: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse upsert_predictions ok",
			applogger.Int("rows", len(preds)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHMLStore) GetPrediction(ctx context.Context, itemID string) (*models.Prediction, error) {
	q := fmt.Sprintf(`
        SELECT item_id, as_of, tier, cluster_id, price_now,
               pred_q20_28d, pred_q50_28d, pred_q80_28d, last_price_date
        FROM %s FINAL
        WHERE item_id = ?
    `, s.predsTable)

	var (
		p         models.Prediction
		clusterID int32
	)
	err := s.db.QueryRowContext(ctx, q, itemID).Scan(
		&p.ItemID, &p.AsOfDate, &p.Tier, &clusterID, &p.PriceNow,
		&p.PredQ20, &p.PredQ50, &p.PredQ80, &p.LastPriceDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	p.ClusterID = int(clusterID)
	return &p, nil
}

func (s *CHMLStore) ReplaceLatest(ctx context.Context, snap *models.RankingSnapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal ranking: %w", err)
	}

	q := fmt.Sprintf("INSERT INTO %s (id, as_of, doc) VALUES (?, ?, ?)", s.rankTable)
	if _, err := s.db.ExecContext(ctx, q, rankingDocID, snap.AsOfDate, string(doc)); err != nil {
		return fmt.Errorf("replace ranking: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse replace_ranking ok",
			applogger.Int("bytes", len(doc)),
		)
	}
	return nil
}

func (s *CHMLStore) GetLatest(ctx context.Context) (*models.RankingSnapshot, error) {
	q := fmt.Sprintf("SELECT doc FROM %s FINAL WHERE id = ?", s.rankTable)

	var doc string
	err := s.db.QueryRowContext(ctx, q, rankingDocID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ranking: %w", err)
	}

	var snap models.RankingSnapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal ranking: %w", err)
	}
	return &snap, nil
}

var (
	_ domrepo.PredictionWriter = (*CHMLStore)(nil)
	_ domrepo.PredictionReader = (*CHMLStore)(nil)
	_ domrepo.RankingWriter    = (*CHMLStore)(nil)
	_ domrepo.RankingReader    = (*CHMLStore)(nil)
)
