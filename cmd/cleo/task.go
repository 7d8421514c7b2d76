package main

import (
	"github.com/spf13/cobra"

	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/engine"
	"github.com/cleohq/cleo/internal/task"
	"github.com/cleohq/cleo/internal/types"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "task",
	Short:   "Create and mutate tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")
		desc, _ := cmd.Flags().GetString("description")
		typ, _ := cmd.Flags().GetString("type")

		e := engine.New(config.StoreDir(), actor())
		t, err := e.CreateTask(parent, args[0], desc, types.TaskType(typ), sessionID())
		return emit(cmd, "task.create", t, "", err, e.Warnings()...)
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Transition a task to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		blockedBy, _ := cmd.Flags().GetString("blocked-by")
		reason, _ := cmd.Flags().GetString("reason")

		e := engine.New(config.StoreDir(), actor())
		t, err := e.Transition(args[0], types.Status(args[1]), task.TransitionOpts{
			BlockedBy:          blockedBy,
			CancellationReason: reason,
		}, sessionID())
		return emit(cmd, "task.status", t, "", err, e.Warnings()...)
	},
}

var taskDependsCmd = &cobra.Command{
	Use:   "depends <id> <dependsOn>",
	Short: "Record a dependency edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := engine.New(config.StoreDir(), actor())
		t, err := e.AddDependency(args[0], args[1], sessionID())
		return emit(cmd, "task.depends", t, "", err, e.Warnings()...)
	},
}

var taskReparentCmd = &cobra.Command{
	Use:   "reparent <id> <newParent>",
	Short: "Move a task under a new parent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetInt("position-version")
		e := engine.New(config.StoreDir(), actor())
		t, err := e.Reparent(args[0], args[1], version, sessionID())
		return emit(cmd, "task.reparent", t, "", err, e.Warnings()...)
	},
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move a task into the cold store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cascade, _ := cmd.Flags().GetBool("cascade")
		reason, _ := cmd.Flags().GetString("reason")
		e := engine.New(config.StoreDir(), actor())
		moved, err := e.Archive(args[0], cascade, reason, sessionID())
		return emit(cmd, "task.archive", moved, "", err, e.Warnings()...)
	},
}

var taskRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a task from the cold store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cascade, _ := cmd.Flags().GetBool("cascade")
		e := engine.New(config.StoreDir(), actor())
		moved, err := e.Restore(args[0], cascade, sessionID())
		return emit(cmd, "task.restore", moved, "", err, e.Warnings()...)
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Preview or execute a hard delete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cascade, _ := cmd.Flags().GetBool("cascade")
		force, _ := cmd.Flags().GetBool("force")

		e := engine.New(config.StoreDir(), actor())
		preview, err := e.PreviewDelete(args[0], cascade)
		if err != nil {
			return emit(cmd, "task.delete", nil, "", err, e.Warnings()...)
		}
		if !force {
			return emit(cmd, "task.delete", preview, "dry run: pass --force to execute", nil, e.Warnings()...)
		}
		if err := e.ExecuteDelete(preview, force, sessionID()); err != nil {
			return emit(cmd, "task.delete", nil, "", err, e.Warnings()...)
		}
		return emit(cmd, "task.delete", preview, "deleted", nil, e.Warnings()...)
	},
}

func init() {
	taskCreateCmd.Flags().String("parent", "", "parent task id")
	taskCreateCmd.Flags().String("description", "", "task description")
	taskCreateCmd.Flags().String("type", "", "task type override (epic|task|subtask)")

	taskStatusCmd.Flags().String("blocked-by", "", "reason the task is blocked")
	taskStatusCmd.Flags().String("reason", "", "cancellation reason")

	taskReparentCmd.Flags().Int("position-version", 0, "expected positionVersion for optimistic concurrency")

	taskArchiveCmd.Flags().Bool("cascade", false, "include descendants")
	taskArchiveCmd.Flags().String("reason", "", "archive reason")
	taskRestoreCmd.Flags().Bool("cascade", false, "include descendants")
	taskDeleteCmd.Flags().Bool("cascade", false, "include descendants")
	taskDeleteCmd.Flags().Bool("force", false, "execute instead of preview")

	taskCmd.AddCommand(taskCreateCmd, taskStatusCmd, taskDependsCmd, taskReparentCmd,
		taskArchiveCmd, taskRestoreCmd, taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}
