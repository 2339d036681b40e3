package jobs

import (
	"context"

	"library-backend/internal/logger"
)

// PurgeRevokedTokens drops revocation entries whose token has expired anyway
func (jr *JobRunner) PurgeRevokedTokens() {
	jr.runWithRecovery("PurgeRevokedTokens", func() {
		ctx := context.Background()

		purged, err := jr.services.Tokens.PurgeExpired(ctx, jr.services.Clock.Now())
		if err != nil {
			logger.Error("Failed to purge revoked tokens", "error", err)
			return
		}
		logger.Info("Purged expired revoked tokens", "count", purged)
	})
}
