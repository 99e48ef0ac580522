package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AlertRepo struct{ DB *pgxpool.Pool }

// RecordAlert stores a dispatched expiry alert. Replays of the same event are ignored.
func (r *AlertRepo) RecordAlert(ctx context.Context, rec ExpiryAlertRecord) (inserted bool, err error) {
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO expiry_alerts(event_id, alert_id, order_id, title, body, expires_at, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING
	`, rec.EventID, rec.AlertID, rec.OrderID, rec.Title, rec.Body, rec.ExpiresAt, rec.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("record alert: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

