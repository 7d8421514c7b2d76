package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cleohq/cleo/internal/audit"
	"github.com/cleohq/cleo/internal/backup"
	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/doctor"
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/store"
	"github.com/cleohq/cleo/internal/sync"
	"github.com/cleohq/cleo/internal/types"
)

var storeCmd = &cobra.Command{
	Use:     "store",
	GroupID: "store",
	Short:   "Export, import, back up, and diagnose the store",
}

var storeExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export every task as newline-delimited JSON, or one YAML document with --format yaml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		proj, warning, err := loadProject()
		if err != nil {
			return emit(cmd, "store.export", nil, "", err)
		}

		switch format {
		case "yaml":
			err = sync.ExportYAML(proj.Tasks, args[0])
		default:
			err = sync.Export(proj.Tasks, args[0])
		}
		if err != nil {
			return emit(cmd, "store.export", nil, "", err, warningSlice(warning)...)
		}
		return emit(cmd, "store.export", map[string]any{"path": args[0], "format": format, "count": len(proj.Tasks)}, "", nil, warningSlice(warning)...)
	},
}

var storeImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import tasks from a newline-delimited JSON file, or a YAML document with --format yaml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")
		format, _ := cmd.Flags().GetString("format")
		mode := sync.ModeMerge
		if replace {
			mode = sync.ModeReplace
		}

		now := time.Now().UTC()
		storeDir := config.StoreDir()
		tasksPath := config.TasksPath(storeDir)

		var result sync.Result
		var warning string
		err := store.WithLock(tasksPath, config.LockTimeout(), func() error {
			proj, w, err := loadProject()
			if err != nil {
				return err
			}
			warning = w

			var tasks []*types.Task
			var res sync.Result
			if format == "yaml" {
				tasks, res, err = sync.ImportYAML(proj.Tasks, args[0], mode, now)
			} else {
				tasks, res, err = sync.Import(proj.Tasks, args[0], mode, now)
			}
			if err != nil {
				return err
			}
			result = res
			proj.Tasks = tasks
			proj.LastUpdated = now
			proj.Meta.Generation++
			checksum, err := store.Checksum(proj.Tasks)
			if err != nil {
				return errs.Wrap(errs.CodeInternal, err, "checksumming tasks")
			}
			proj.Meta.Checksum = checksum

			if err := store.WriteAtomic(tasksPath, proj); err != nil {
				return err
			}
			return audit.Append(storeDir, audit.Entry{
				At: now, Action: "store.import", Actor: actor(), SessionID: sessionID(),
				Details: map[string]any{"added": res.Added, "replaced": res.Replaced, "skipped": res.Skipped},
			})
		})
		return emit(cmd, "store.import", result, "", err, warningSlice(warning)...)
	},
}

var storeDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run the store's diagnostic sweep",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := doctor.Run(config.StoreDir())
		return emit(cmd, "store.doctor", report, "", err)
	},
}

var storeBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Take an on-demand safety backup of the active store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		storeDir := config.StoreDir()
		limits := backup.RotationLimits{
			Operational: config.GetInt("backup.operational-rotate"),
			Safety:      config.GetInt("backup.safety-rotate"),
		}
		path, err := backup.Take(storeDir, backup.KindSafety, config.TasksPath(storeDir), limits, time.Now().UTC())
		return emit(cmd, "store.backup", map[string]any{"path": path}, "", err)
	},
}

var storeRestoreCmd = &cobra.Command{
	Use:   "restore <backupPath>",
	Short: "Restore the active store from a previously taken backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeDir := config.StoreDir()
		limits := backup.RotationLimits{
			Operational: config.GetInt("backup.operational-rotate"),
			Safety:      config.GetInt("backup.safety-rotate"),
		}
		err := backup.Restore(storeDir, args[0], config.TasksPath(storeDir), limits, time.Now().UTC())
		return emit(cmd, "store.restore", nil, "restored", err)
	},
}

var storeListBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups in a rotation pool",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		names, err := backup.List(config.StoreDir(), backup.Kind(kind))
		return emit(cmd, "store.backups", names, "", err)
	},
}

func init() {
	storeExportCmd.Flags().String("format", "jsonl", "jsonl|yaml")
	storeImportCmd.Flags().Bool("replace", false, "discard existing tasks instead of merging")
	storeImportCmd.Flags().String("format", "jsonl", "jsonl|yaml")
	storeListBackupsCmd.Flags().String("kind", "safety", "operational|safety")

	storeCmd.AddCommand(storeExportCmd, storeImportCmd, storeDoctorCmd, storeBackupCmd, storeRestoreCmd, storeListBackupsCmd)
	rootCmd.AddCommand(storeCmd)
}
