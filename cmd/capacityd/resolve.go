package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"truckslot/internal/availability"
	"truckslot/internal/capacity"
	"truckslot/internal/config"
	"truckslot/internal/db"
	"truckslot/internal/model"
)

func newResolveCmd(configPath *string) *cobra.Command {
	var (
		terminalID int64
		startDate  string
		endDate    string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the effective capacity and availability of a terminal for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := model.ParseDate(startDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			end := start
			if endDate != "" {
				if end, err = model.ParseDate(endDate); err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg).Level(zerolog.WarnLevel)

			database, err := db.NewDB(cfg.Database.Path, &logger)
			if err != nil {
				return err
			}
			defer database.Close()

			svc := availability.NewService(database, capacity.NewResolver(cfg.TieBreaks()...), nil, &logger, cfg.Availability.MaxDays)
			days, err := svc.GetAvailability(cmd.Context(), terminalID, start, end)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(days)
		},
	}

	cmd.Flags().Int64Var(&terminalID, "terminal", 0, "terminal id")
	cmd.Flags().StringVar(&startDate, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "optional last date of the range (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("terminal")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
