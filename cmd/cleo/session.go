package main

import (
	"github.com/spf13/cobra"

	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/engine"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	GroupID: "session",
	Short:   "Manage agent sessions and focus",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Open a new session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, _ := cmd.Flags().GetString("scope")
		agent, _ := cmd.Flags().GetString("agent")
		terminal, _ := cmd.Flags().GetString("terminal")
		model, _ := cmd.Flags().GetString("model")

		e := engine.New(config.StoreDir(), actor())
		s, err := e.StartSession(scope, agent, terminal, model)
		return emit(cmd, "session.start", s, "", err, e.Warnings()...)
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end <id>",
	Short: "Close an open session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")
		e := engine.New(config.StoreDir(), actor())
		err := e.EndSession(args[0], note)
		return emit(cmd, "session.end", nil, "session ended", err, e.Warnings()...)
	},
}

var sessionFocusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Bind the active session's current task/phase",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, _ := cmd.Flags().GetString("task")
		phase, _ := cmd.Flags().GetString("phase")
		note, _ := cmd.Flags().GetString("note")
		next, _ := cmd.Flags().GetString("next")

		e := engine.New(config.StoreDir(), actor())
		focus, err := e.SetFocus(sessionID(), taskID, phase, note, next)
		return emit(cmd, "session.focus", focus, "", err, e.Warnings()...)
	},
}

func init() {
	sessionStartCmd.Flags().String("scope", "", "session scope label")
	sessionStartCmd.Flags().String("agent", "", "agent identifier")
	sessionStartCmd.Flags().String("terminal", "", "terminal binding for session resolution")
	sessionStartCmd.Flags().String("model", "", "agent model identifier recorded as audit provenance")

	sessionEndCmd.Flags().String("note", "", "closing note")

	sessionFocusCmd.Flags().String("task", "", "task id to focus")
	sessionFocusCmd.Flags().String("phase", "", "current phase")
	sessionFocusCmd.Flags().String("note", "", "session note")
	sessionFocusCmd.Flags().String("next", "", "next action")

	sessionCmd.AddCommand(sessionStartCmd, sessionEndCmd, sessionFocusCmd)
	rootCmd.AddCommand(sessionCmd)
}
