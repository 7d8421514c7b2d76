package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleohq/cleo/internal/config"
	"github.com/cleohq/cleo/internal/envelope"
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/log"
)

var (
	flagJSON    bool
	flagSession string
	flagActor   string
)

var rootCmd = &cobra.Command{
	Use:           "cleo",
	Short:         "A file-backed task-management engine for agentic development",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}
		return log.Init(log.Options{
			Path:       config.StoreDir() + "/cleo.log",
			MaxSizeMB:  config.GetInt("log.max-size-mb"),
			MaxAgeDays: config.GetInt("log.max-age-days"),
			MaxBackups: config.GetInt("log.max-backups"),
			Verbose:    config.GetBool("log.verbose"),
		})
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "task", Title: "Task commands:"},
		&cobra.Group{ID: "session", Title: "Session commands:"},
		&cobra.Group{ID: "epic", Title: "Epic lifecycle commands:"},
		&cobra.Group{ID: "query", Title: "Query commands:"},
		&cobra.Group{ID: "store", Title: "Store commands:"},
	)
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", true, "emit a single response envelope as JSON")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", os.Getenv("CLEO_SESSION_ID"), "session id for provenance")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", config.GetString("actor"), "actor name for provenance")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// emit prints exactly one envelope for this invocation and returns an error
// carrying the process exit code (§4.14, §6.3). warnings carries any
// non-fatal issues accumulated during the operation (e.g. from
// engine.Engine.Warnings) — best-effort backup/checkpoint failures and
// checksum mismatches that survived a retry (§4.11).
func emit(cmd *cobra.Command, operation string, result any, message string, opErr error, warnings ...string) error {
	meta := envelope.NewMeta(cmd.CommandPath(), operation, "cli", time.Now().UTC())
	var env envelope.Envelope
	if opErr != nil {
		env = envelope.Failure(meta, errs.AsError(opErr), warnings...)
	} else {
		env = envelope.Success(meta, result, message, warnings...)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return err
	}
	if code := env.ExitCode(); code != 0 {
		return exitError{code: code}
	}
	return nil
}

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

func exitCodeFor(err error) int {
	if ee, ok := err.(exitError); ok {
		return ee.code
	}
	return 9
}

func sessionID() string    { return flagSession }
func actor() string        { return flagActor }
func timeNow() time.Time   { return time.Now().UTC() }
