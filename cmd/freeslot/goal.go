package main

import (
	"github.com/spf13/cobra"

	"github.com/hrygo/freeslot/server/scheduler/availability"
)

func newGoalCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage stored goals",
	}

	var file string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Store a goal from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var goal availability.Goal
			if err := decodeFile(file, &goal); err != nil {
				return err
			}
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			created, err := svc.CreateGoal(cmd.Context(), goal)
			if err != nil {
				return err
			}
			return c.render(cmd, created)
		},
	}
	createCmd.Flags().StringVarP(&file, "file", "f", "", "goal file")
	_ = createCmd.MarkFlagRequired("file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			goals, err := svc.ListGoals(cmd.Context())
			if err != nil {
				return err
			}
			if goals == nil {
				goals = []availability.Goal{}
			}
			return c.render(cmd, goals)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <uid>",
		Short: "Show a stored goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			goal, err := svc.GetGoal(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd, goal)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <uid>",
		Short: "Delete a stored goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			return svc.DeleteGoal(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(createCmd, listCmd, getCmd, deleteCmd)
	return cmd
}
