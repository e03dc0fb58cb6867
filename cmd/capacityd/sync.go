package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"truckslot/internal/config"
	"truckslot/internal/db"
)

func newSyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Apply the terminals catalogue to the database once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg)

			tc, err := config.LoadTerminalsConfig(cfg.Terminals.Path)
			if err != nil {
				return err
			}

			database, err := db.NewDB(cfg.Database.Path, &logger)
			if err != nil {
				return err
			}
			defer database.Close()

			res, err := database.SyncTerminalsFromConfig(cmd.Context(), tc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "terminals=%d deactivated=%d defaults_seeded=%d holidays_closed=%d\n",
				res.Terminals, res.Deactivated, res.DefaultsSeeded, res.HolidaysClosed)

			terminals, err := database.ListTerminals(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range terminals {
				state := "active"
				if !t.IsActive {
					state = "inactive"
				}
				fmt.Fprintf(out, "%4d  %-8s  %s\n", t.ID, state, t.Name)
			}
			return nil
		},
	}
}
