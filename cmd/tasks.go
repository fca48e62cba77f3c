package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadscout/leadscout/internal/export"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and export background resolution tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ids, err := st.ListTaskIDs(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, id := range ids {
			task, err := st.GetTask(ctx, id)
			if err != nil {
				return err
			}
			if err := enc.Encode(task); err != nil {
				return err
			}
		}
		return nil
	},
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		task, err := st.GetTask(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(task)
	},
}

var tasksExportOut string

var tasksExportCmd = &cobra.Command{
	Use:   "export <task-id>",
	Short: "Export a completed task's records to XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		task, err := st.GetTask(ctx, args[0])
		if err != nil {
			return err
		}

		f, err := os.Create(tasksExportOut)
		if err != nil {
			return eris.Wrap(err, "create export file")
		}
		defer f.Close()

		if err := export.WriteTask(f, task); err != nil {
			return err
		}

		zap.L().Info("task exported",
			zap.String("task_id", task.ID),
			zap.String("path", tasksExportOut),
		)
		return nil
	},
}

func init() {
	tasksExportCmd.Flags().StringVar(&tasksExportOut, "out", "export.xlsx", "output file path")
	tasksCmd.AddCommand(tasksListCmd, tasksStatusCmd, tasksExportCmd)
	rootCmd.AddCommand(tasksCmd)
}
