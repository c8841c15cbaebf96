package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CardPull/internal/domain/models"
	domrepo "CardPull/internal/domain/repository"
	pkgch "CardPull/pkg/clickhouse"
	applogger "CardPull/pkg/logger"
)

// CHPrices implements PriceReader backed by ClickHouse.
type CHPrices struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPrices(ch *pkgch.Client, table string) *CHPrices {
	return &CHPrices{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (p *CHPrices) SetLogger(l *applogger.Logger) { p.l = l }

func (p *CHPrices) ListSnapshots(ctx context.Context, itemIDs []string, from, to time.Time) ([]models.PriceSnapshot, error) {
	start := time.Now()

	where := make([]string, 0, 3)
	args := make([]interface{}, 0, len(itemIDs)+2)
	if len(itemIDs) > 0 {
		where = append(where, "item_id IN ("+placeholders(len(itemIDs))+")")
		for _, id := range itemIDs {
			args = append(args, id)
		}
	}
	if !from.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, to)
	}

	q := fmt.Sprintf(`
        SELECT item_id, created_at,
               price_primary, price_pricecharting, cm_price_avg, cm_price_low,
               cm_avg_7d, cm_price_trend, cm_avg_30d, price_ungraded, cm_avg_1d,
               sellers, listings
        FROM %s
    `, p.table)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY item_id, created_at"

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceSnapshot, 0, 4096)
	for rows.Next() {
		var (
			s    models.PriceSnapshot
			cols [11]sql.NullFloat64
		)
		if err := rows.Scan(
			&s.ItemID, &s.CreatedAt,
			&cols[0], &cols[1], &cols[2], &cols[3], &cols[4],
			&cols[5], &cols[6], &cols[7], &cols[8],
			&cols[9], &cols[10],
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.PricePrimary = nullable(cols[0])
		s.PricePriceCharting = nullable(cols[1])
		s.CMPriceAvg = nullable(cols[2])
		s.CMPriceLow = nullable(cols[3])
		s.CMAvg7d = nullable(cols[4])
		s.CMPriceTrend = nullable(cols[5])
		s.CMAvg30d = nullable(cols[6])
		s.PriceUngraded = nullable(cols[7])
		s.CMAvg1d = nullable(cols[8])
		s.Sellers = nullable(cols[9])
		s.Listings = nullable(cols[10])
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if p.l != nil {
		p.l.Info("clickhouse list_snapshots ok",
			applogger.Int("items_filter", len(itemIDs)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (p *CHPrices) InsertSnapshots(ctx context.Context, snaps []models.PriceSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	start := time.Now()

	const chunkSize = 2000
	for lo := 0; lo < len(snaps); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(snaps) {
			hi = len(snaps)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*13)
		for _, s := range snaps[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				s.ItemID, s.CreatedAt,
				s.PricePrimary, s.PricePriceCharting, s.CMPriceAvg, s.CMPriceLow,
				s.CMAvg7d, s.CMPriceTrend, s.CMAvg30d, s.PriceUngraded, s.CMAvg1d,
				s.Sellers, s.Listings,
			)
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (item_id, created_at, price_primary, price_pricecharting, cm_price_avg, cm_price_low, cm_avg_7d, cm_price_trend, cm_avg_30d, price_ungraded, cm_avg_1d, sellers, listings) VALUES %s",
			p.table, strings.Join(values, ","),
		)
		if _, err := p.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert snapshots: %w", err)
		}
	}

	if p.l != nil {
		p.l.Info("clickhouse insert_snapshots ok",
			applogger.Int("rows", len(snaps)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var (
	_ domrepo.PriceReader    = (*CHPrices)(nil)
	_ domrepo.SnapshotWriter = (*CHPrices)(nil)
)
