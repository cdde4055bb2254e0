package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dip-trader/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	var (
		symbol    string
		sessionID string
		days      int
		limit     int
		paperOnly bool
		liveOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List persisted trade records",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			filter := store.RecordFilter{
				Symbol:    symbol,
				SessionID: sessionID,
				Limit:     limit,
			}
			if days > 0 {
				filter.StartDate = time.Now().AddDate(0, 0, -days)
			}
			if paperOnly {
				v := true
				filter.IsPaper = &v
			} else if liveOnly {
				v := false
				filter.IsPaper = &v
			}

			recs, err := app.Store.GetTradeRecords(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(recs)
			}

			if len(recs) == 0 {
				output.Dim("No trade records found.")
				return nil
			}

			output.Bold("%-20s %-8s %5s %10s %12s %8s %6s", "DATE", "SYMBOL", "QTY", "PRICE", "TOTAL", "DROP%", "MODE")
			for _, rec := range recs {
				mode := "live"
				if rec.IsPaper {
					mode = "paper"
				}
				output.Printf("%-20s %-8s %5d %10.2f %12.2f %8.2f %6s\n",
					rec.Date, rec.Symbol, rec.Quantity, rec.Price, rec.TotalCost, rec.DeclinePct, mode)
			}
			output.Dim("%d record(s)", len(recs))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&sessionID, "session", "", "filter by session id")
	cmd.Flags().IntVar(&days, "days", 0, "only records from the last N days")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records to list")
	cmd.Flags().BoolVar(&paperOnly, "paper", false, "paper trades only")
	cmd.Flags().BoolVar(&liveOnly, "live", false, "live trades only")

	cmd.AddCommand(newSessionsCmd(app))

	return cmd
}

func newSessionsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List past monitoring sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			sessions, err := app.Store.GetSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(sessions)
			}

			if len(sessions) == 0 {
				output.Dim("No sessions found.")
				return nil
			}

			output.Bold("%-36s %-8s %-10s %10s %8s %7s", "SESSION", "SYMBOL", "MODE", "BASELINE", "DROP%", "TRADES")
			for _, s := range sessions {
				output.Printf("%-36s %-8s %-10s %10.2f %8.2f %7d\n",
					s.SessionID, s.Symbol, s.Mode, s.BaselinePrice, s.TotalDeclinePct, s.TotalTrades)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list (0 for all)")
	return cmd
}
