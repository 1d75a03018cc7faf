package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/model"
	"github.com/BuzzLyutic/task-cli/internal/store"
)

func (a *app) addCommand() *cobra.Command {
	var name, deadline, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "create new task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.ValidateName(name); err != nil {
				return err
			}
			d, err := optionalDeadline(deadline)
			if err != nil {
				return err
			}
			var desc *string
			if cmd.Flags().Changed("description") {
				desc = &description
			}

			return a.session(cmd.Context(), func(s *store.Store) error {
				task, err := s.Add(name, d, desc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), task.Hash)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name of the task (required, max. 20 characters)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "task's deadline in ISO format (yyyy-mm-dd)")
	cmd.Flags().StringVar(&description, "description", "", "description of the task")
	cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) updateCommand() *cobra.Command {
	var (
		name, deadline, description     string
		clearDeadline, clearDescription bool
	)

	cmd := &cobra.Command{
		Use:   "update TASK_HASH",
		Short: "update task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.Patch
			if name != "" {
				if err := model.ValidateName(name); err != nil {
					return err
				}
				patch.Name = &name
			}
			d, err := optionalDeadline(deadline)
			if err != nil {
				return err
			}
			patch.Deadline = d
			if description != "" {
				patch.Description = &description
			}
			patch.ClearDeadline = clearDeadline
			patch.ClearDescription = clearDescription
			if patch.Empty() {
				a.logger.Debug("update without changes", zap.String("hash", args[0]))
			}

			return a.session(cmd.Context(), func(s *store.Store) error {
				_, found, err := s.Update(args[0], patch)
				if err != nil {
					return err
				}
				if !found {
					a.printNotFound(cmd)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "name of the task")
	cmd.Flags().StringVar(&deadline, "deadline", "", "task's deadline in ISO format (yyyy-mm-dd)")
	cmd.Flags().StringVar(&description, "description", "", "description of the task")
	cmd.Flags().BoolVar(&clearDeadline, "clear-deadline", false, "remove the task's deadline")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "remove the task's description")
	cmd.MarkFlagsMutuallyExclusive("deadline", "clear-deadline")
	cmd.MarkFlagsMutuallyExclusive("description", "clear-description")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK_HASH",
		Short: "delete task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session(cmd.Context(), func(s *store.Store) error {
				found, err := s.Delete(args[0])
				if err != nil {
					return err
				}
				if !found {
					a.printNotFound(cmd)
				}
				return nil
			})
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	var all, today bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "list tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := store.ModeAll
			if today {
				mode = store.ModeToday
			}

			return a.session(cmd.Context(), func(s *store.Store) error {
				tasks, empty, err := s.List(mode)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if empty != store.NotEmpty {
					fmt.Fprintln(out, empty)
					return nil
				}
				for task := range tasks {
					fmt.Fprintln(out, model.FormattedDisplay(task))
				}
				fmt.Fprintln(out, model.Rule())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list all tasks")
	cmd.Flags().BoolVar(&today, "today", false, "list tasks due today")
	cmd.MarkFlagsMutuallyExclusive("all", "today")
	cmd.MarkFlagsOneRequired("all", "today")
	return cmd
}

func optionalDeadline(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDeadline(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
