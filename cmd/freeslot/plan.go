package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/freeslot/server/scheduler/availability"
	"github.com/hrygo/freeslot/server/service/schedule"
	"github.com/hrygo/freeslot/server/timezone"
)

func newPlanCommand(c *cli) *cobra.Command {
	var (
		goalUID    string
		goalFile   string
		diagnostic bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan sessions for a stored goal or a goal file",
		Example: `  freeslot plan --goal read-more --diagnostic
  freeslot plan --goal-file goal.yaml -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (goalUID == "") == (goalFile == "") {
				return errors.New("exactly one of --goal or --goal-file is required")
			}
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			var result *availability.ScheduleResult
			if goalUID != "" {
				result, err = svc.PlanGoal(cmd.Context(), goalUID, diagnostic)
			} else {
				var goal availability.Goal
				if err := decodeFile(goalFile, &goal); err != nil {
					return err
				}
				result, err = svc.Plan(cmd.Context(), goal, diagnostic)
			}
			if err != nil {
				return err
			}
			return c.render(cmd, result)
		},
	}
	cmd.Flags().StringVar(&goalUID, "goal", "", "uid of a stored goal")
	cmd.Flags().StringVar(&goalFile, "goal-file", "", "YAML or JSON goal file")
	cmd.Flags().BoolVar(&diagnostic, "diagnostic", false, "report shortfalls and alternatives")
	return cmd
}

func newApplyCommand(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Write chosen sessions to the calendar",
		Long: `Apply reads a YAML or JSON request with the events of a chosen time option
and stores them as schedules. With recurring: true a single recurring
schedule is written instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req schedule.ApplyRequest
			if err := decodeFile(file, &req); err != nil {
				return err
			}
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			result, err := svc.ApplyPlan(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return c.render(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "apply request file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSlotsCommand(c *cli) *cobra.Command {
	var (
		text     string
		duration int
		date     string
		deadline string
		dayPart  string
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Find free slots of a given length",
		Example: `  freeslot slots --text "tomorrow afternoon" --duration 45
  freeslot slots --date 2026-10-20 --day-part morning`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if text != "" {
				result, err := svc.FindSlotsFromText(cmd.Context(), text, duration)
				if err != nil {
					return err
				}
				return c.render(cmd, result)
			}

			req := &schedule.FindSlotsRequest{
				DurationMinutes: duration,
				Deadline:        deadline,
				TargetDate:      date,
			}
			if dayPart != "" {
				part, ok := availability.ParseDayPart(dayPart)
				if !ok {
					return errors.Errorf("unknown day part %q", dayPart)
				}
				window := part.Window()
				req.Window = &window
			}
			result, err := svc.FindSlots(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.render(cmd, result)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&text, "text", "", `free-form request such as "next tuesday 3pm"`)
	flags.IntVar(&duration, "duration", 60, "slot length in minutes")
	flags.StringVar(&date, "date", "", "only search this date (YYYY-MM-DD)")
	flags.StringVar(&deadline, "deadline", "", "search up to this date (YYYY-MM-DD)")
	flags.StringVar(&dayPart, "day-part", "", "morning, afternoon or evening")
	return cmd
}

func newParseCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "parse <text>",
		Short:   "Parse a free-form time request",
		Example: `  freeslot parse next friday evening`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			parsed, err := svc.ParseTimeRequest(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return c.render(cmd, parsed)
		},
	}
}

func newRRuleCommand(c *cli) *cobra.Command {
	var frequency, start, deadline string
	cmd := &cobra.Command{
		Use:   "rrule",
		Short: "Build the RRULE for a goal frequency",
		Example: `  freeslot rrule --frequency "3x per week" --deadline 2026-12-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			desc, err := svc.BuildRecurrence(cmd.Context(), frequency, start, deadline)
			if err != nil {
				return err
			}
			return c.render(cmd, desc)
		},
	}
	cmd.Flags().StringVar(&frequency, "frequency", "", "daily, weekly, 3x per week, ...")
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&deadline, "deadline", "", "last day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("frequency")
	return cmd
}

func newBusyCommand(c *cli) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "busy",
		Short: "List merged busy time between two dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			loc, err := timezone.ParseTimezone(c.v.GetString("timezone"))
			if err != nil {
				return err
			}
			from, err := timezone.ParseDate(start, loc)
			if err != nil {
				return errors.Wrap(err, "invalid --start")
			}
			to, err := timezone.ParseDate(end, loc)
			if err != nil {
				return errors.Wrap(err, "invalid --end")
			}
			busy, err := svc.BusyIntervals(cmd.Context(), from, timezone.AddDays(to, 1, loc))
			if err != nil {
				return err
			}
			if busy == nil {
				busy = []availability.BusyInterval{}
			}
			return c.render(cmd, busy)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last date, inclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
