package jobs

import (
	"context"

	"gramlens/internal/config"
	"gramlens/internal/model"
	"gramlens/internal/report"
	"gramlens/internal/store/sqlitestore"
)

// RunReportOnce generates one report with a store connection scoped to
// the call: acquired here, released on every exit path.
func RunReportOnce(ctx context.Context, cfg config.Config) (model.Report, error) {
	db, err := sqlitestore.Open(cfg.Storage.DBPath)
	if err != nil {
		return model.Report{}, err
	}
	defer db.Close()
	return report.Generate(ctx, db, cfg)
}
