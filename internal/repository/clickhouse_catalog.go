package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"CardPull/internal/domain/models"
	domrepo "CardPull/internal/domain/repository"
	pkgch "CardPull/pkg/clickhouse"
	applogger "CardPull/pkg/logger"
)

// CHCatalog implements CatalogReader backed by ClickHouse.
type CHCatalog struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHCatalog(ch *pkgch.Client, table string) *CHCatalog {
	return &CHCatalog{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (c *CHCatalog) SetLogger(l *applogger.Logger) { c.l = l }

func (c *CHCatalog) ListCards(ctx context.Context, category string) ([]models.CardMeta, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT item_id, name, rarity, printing, color, set_id, alternate, release_date, category
        FROM %s
        WHERE category = ?
        ORDER BY item_id
    `, c.table)

	rows, err := c.db.QueryContext(ctx, q, category)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	out := make([]models.CardMeta, 0, 1024)
	for rows.Next() {
		var (
			card     models.CardMeta
			released sql.NullTime
		)
		if err := rows.Scan(
			&card.ItemID, &card.Name, &card.Rarity, &card.Printing,
			&card.Color, &card.SetID, &card.Alternate, &released, &card.Category,
		); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		if released.Valid {
			card.ReleaseDate = released.Time.UTC()
		}
		out = append(out, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if c.l != nil {
		c.l.Info("clickhouse list_cards ok",
			applogger.String("category", category),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.CatalogReader = (*CHCatalog)(nil)
