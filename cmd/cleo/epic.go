package main

import (
	"github.com/spf13/cobra"

	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/engine"
	"github.com/cleohq/cleo/internal/types"
)

var epicCmd = &cobra.Command{
	Use:     "epic",
	GroupID: "epic",
	Short:   "Drive an epic's lifecycle pipeline",
}

var epicAdvanceCmd = &cobra.Command{
	Use:   "advance <epicId> <stage>",
	Short: "Move a stage into in_progress",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		forced, _ := cmd.Flags().GetBool("force")
		kind := types.TransitionManual
		if forced {
			kind = types.TransitionForced
		}
		e := engine.New(config.StoreDir(), actor())
		p, err := e.AdvanceStage(args[0], types.Stage(args[1]), kind, sessionID())
		return emit(cmd, "epic.advance", p, "", err, e.Warnings()...)
	},
}

var epicCompleteCmd = &cobra.Command{
	Use:   "complete <epicId> <stage>",
	Short: "Run gates and mark a stage completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		gateName, _ := cmd.Flags().GetString("gate")
		gateResult, _ := cmd.Flags().GetString("gate-result")

		var gates []types.GateResult
		if gateName != "" {
			gates = append(gates, types.GateResult{
				Name: gateName, Result: gateResult, CheckedBy: actor(), CheckedAt: timeNow(),
			})
		}

		e := engine.New(config.StoreDir(), actor())
		p, err := e.CompleteStage(args[0], types.Stage(args[1]), gates, reason, sessionID())
		return emit(cmd, "epic.complete", p, "", err, e.Warnings()...)
	},
}

var epicSkipCmd = &cobra.Command{
	Use:   "skip <epicId> <stage>",
	Short: "Skip a stage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		e := engine.New(config.StoreDir(), actor())
		p, err := e.SkipStage(args[0], types.Stage(args[1]), reason, sessionID())
		return emit(cmd, "epic.skip", p, "", err, e.Warnings()...)
	},
}

var epicBlockCmd = &cobra.Command{
	Use:   "block <epicId> <stage>",
	Short: "Mark a stage blocked",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		e := engine.New(config.StoreDir(), actor())
		p, err := e.BlockStage(args[0], types.Stage(args[1]), reason, sessionID())
		return emit(cmd, "epic.block", p, "", err, e.Warnings()...)
	},
}

func init() {
	epicAdvanceCmd.Flags().Bool("force", false, "force the transition despite unmet prerequisites")
	epicCompleteCmd.Flags().String("reason", "", "completion note")
	epicCompleteCmd.Flags().String("gate", "", "gate name to record")
	epicCompleteCmd.Flags().String("gate-result", "pass", "gate result: pass|fail|warn")
	epicSkipCmd.Flags().String("reason", "", "skip reason")
	epicBlockCmd.Flags().String("reason", "", "block reason")

	epicCmd.AddCommand(epicAdvanceCmd, epicCompleteCmd, epicSkipCmd, epicBlockCmd)
	rootCmd.AddCommand(epicCmd)
}
