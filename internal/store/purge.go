package store

import (
	"context"
	"time"

	"auth/internal/domain"

	"gorm.io/gorm"
)

// PurgeExpired removes ephemeral tokens past their expiry and sessions that
// expired or were revoked before now-retention. It returns the number of rows
// removed per table. Read paths never depend on this having run.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time, retention time.Duration) (map[string]int64, error) {
	deleted := map[string]int64{}
	cutoff := now.Add(-retention)

	err := s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)

		purge := func(label string, query *gorm.DB) error {
			if query.Error != nil {
				return query.Error
			}
			deleted[label] = query.RowsAffected
			return nil
		}

		if err := purge("ephemeralTokens", db.Where("expires_at <= ?", now).Delete(&domain.EphemeralToken{})); err != nil {
			return err
		}
		return purge("refreshSessions", db.
			Where("expires_at <= ? OR (revoked = ? AND revoked_at <= ?)", cutoff, true, cutoff).
			Delete(&domain.Session{}))
	})

	return deleted, err
}
