package cli

import (
	"github.com/spf13/cobra"
)

// statsResult mirrors the admin API's stats payload
type statsResult struct {
	TotalRecords   int   `json:"total_records"`
	Verified       int   `json:"verified"`
	TimedOut       int   `json:"timed_out"`
	InCooldown     int   `json:"in_cooldown"`
	ActiveSessions int   `json:"active_sessions"`
	DegradedAllows int64 `json:"degraded_allows"`
	DroppedWrites  int64 `json:"dropped_writes"`
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show engine-wide verification statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result statsResult
			if err := client.Get("/api/v1/stats", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the server's configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]string
			if err := client.Post("/api/v1/reload", nil, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]string
			if err := client.Get("/healthz", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
