package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gitlab.com/codemark.net/internal/config"
)

var rerunCmd = &cobra.Command{
	Use:   "rerun <submission-id>",
	Short: "Plan and queue a new run of a submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		submissionID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid submission id %q: %w", args[0], err)
		}
		cfg := loadConfig()
		if err := checkRerunQueue(cfg); err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.plannerService().TriggerRun(cmd.Context(), submissionID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.ID)
		return nil
	},
}

// checkRerunQueue rejects queues that live inside this process, since the
// command exits right after enqueueing and no worker would ever see the run.
func checkRerunQueue(cfg *config.AppConfig) error {
	if cfg.DispatchConfig.Queue == config.QueueMemory {
		return fmt.Errorf("rerun needs a shared run queue, RUN_QUEUE=%s is local to this process", config.QueueMemory)
	}
	return nil
}
