package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dip-trader/internal/models"
	"dip-trader/internal/report"
	"dip-trader/internal/store"
)

func newReportCmd(app *App) *cobra.Command {
	var (
		sessionID string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Regenerate report artifacts from stored records",
		Long: `Rebuilds the CSV and HTML report for a past session from the database.
Without --session the most recent session is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			ctx := cmd.Context()

			sum, err := resolveSession(cmd, app, sessionID)
			if err != nil {
				return err
			}

			recs, err := app.Store.GetTradeRecords(ctx, store.RecordFilter{SessionID: sum.SessionID})
			if err != nil {
				return err
			}

			dir := outDir
			if dir == "" {
				dir = app.Config.Reports.Dir
			}
			reporter, err := report.NewReporter(dir, app.Logger)
			if err != nil {
				return err
			}

			// Poll observations are not persisted, so the regenerated report
			// carries the summary and transactions without the decline chart.
			paths, err := reporter.GenerateReport(sum, nil, recs)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"session": sum.SessionID, "paths": paths})
			}
			output.Success("Report regenerated for session %s", sum.SessionID)
			for _, p := range paths {
				output.Println("  " + p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: most recent)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default: configured reports dir)")

	return cmd
}

func resolveSession(cmd *cobra.Command, app *App, sessionID string) (models.TradingSummary, error) {
	// A lookup by id needs the whole history, not a recent page.
	limit := 0
	if sessionID == "" {
		limit = 1
	}
	sessions, err := app.Store.GetSessions(cmd.Context(), limit)
	if err != nil {
		return models.TradingSummary{}, err
	}
	if len(sessions) == 0 {
		return models.TradingSummary{}, fmt.Errorf("no sessions recorded")
	}
	if sessionID == "" {
		return sessions[0], nil
	}
	for _, s := range sessions {
		if s.SessionID == sessionID {
			return s, nil
		}
	}
	return models.TradingSummary{}, fmt.Errorf("session %s not found", sessionID)
}
