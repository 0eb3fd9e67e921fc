package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// recordResult mirrors the admin API's record payload
type recordResult struct {
	AccountID         string `json:"account_id"`
	Username          string `json:"username"`
	Verified          bool   `json:"verified"`
	TotalAttempts     int    `json:"total_attempts"`
	FailedAttempts    int    `json:"failed_attempts"`
	TimeoutUntil      string `json:"timeout_until,omitempty"`
	CooldownUntil     string `json:"cooldown_until,omitempty"`
	BypassGranted     bool   `json:"bypass_granted"`
	LastOriginAddress string `json:"last_origin_address"`
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Inspect and mutate player verification records",
	}

	cmd.AddCommand(
		newRecordGetCmd(),
		newRecordVerifyCmd(),
		newRecordResetCmd(),
		newRecordTimeoutCmd(),
		newRecordBypassCmd(),
	)
	return cmd
}

func newRecordGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show a player record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result recordResult
			if err := client.Get("/api/v1/records/"+args[0], &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRecordVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <account-id>",
		Short: "Force-verify an account without a challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result recordResult
			if err := client.Post("/api/v1/records/"+args[0]+"/verify", nil, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRecordResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <account-id>",
		Short: "Clear all verification state for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result recordResult
			if err := client.Post("/api/v1/records/"+args[0]+"/reset", nil, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRecordTimeoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeout <account-id> <seconds>",
		Short: "Put an account in the penalty box",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[1])
			if err != nil || seconds <= 0 {
				return fmt.Errorf("seconds must be a positive integer, got %q", args[1])
			}

			var result recordResult
			body := map[string]int{"seconds": seconds}
			if err := client.Post("/api/v1/records/"+args[0]+"/timeout", body, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRecordBypassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bypass <account-id>",
		Short: "Toggle the admission bypass flag for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result recordResult
			if err := client.Post("/api/v1/records/"+args[0]+"/bypass", nil, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
