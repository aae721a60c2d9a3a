package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/new-xmon-df/pollinations-go/pkg/cron"
	"github.com/new-xmon-df/pollinations-go/pkg/node"
)

var (
	watchBalance   bool
	watchSchedule  string
	watchThreshold float64
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the pollen balance",
	Long:  "Show the pollen balance of the account.\nWith --watch, check it on a schedule and warn when it drops below --threshold.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !watchBalance {
			items, err := cli.node.Execute(cmd.Context(), node.OpGetBalance, nil)
			if err != nil {
				return err
			}
			return printItems(items)
		}
		return runWatch(cmd)
	},
}

func init() {
	balanceCmd.Flags().BoolVarP(&watchBalance, "watch", "w", false, "keep checking the balance on a schedule")
	balanceCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron expression or descriptor (default from config, e.g. @every 5m)")
	balanceCmd.Flags().Float64Var(&watchThreshold, "threshold", 0, "warn when the balance is below this value (default from config)")
}

func runWatch(cmd *cobra.Command) error {
	schedule := cli.cfg.Watch.Schedule
	if cmd.Flags().Changed("schedule") {
		schedule = watchSchedule
	}
	threshold := cli.cfg.Watch.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = watchThreshold
	}

	svc := cron.NewService(cli.client, func(c cron.BalanceCheck) {
		ts := c.CheckedAt.Format("2006-01-02 15:04:05")
		switch {
		case c.Err != nil:
			fmt.Fprintf(os.Stderr, "%s  error: %v\n", ts, c.Err)
		case c.Low:
			fmt.Printf("%s  %g pollens (below %g)\n", ts, c.Balance, c.Threshold)
		default:
			fmt.Printf("%s  %g pollens\n", ts, c.Balance)
		}
	})

	id, err := svc.AddJob(schedule, threshold)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.Check(ctx, id)
	svc.Start()
	defer svc.Stop()

	fmt.Fprintf(os.Stderr, "Watching balance (%s), press Ctrl+C to stop\n", schedule)
	<-ctx.Done()
	return nil
}
