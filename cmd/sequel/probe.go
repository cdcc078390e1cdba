package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mitranim/sequel"
	"github.com/mitranim/sequel/internal/cli"
)

var (
	probeThreshold time.Duration
	probeHold      time.Duration
	probeFail      bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Saturate the pool and report the too-busy signal",
	Long: `Acquire every connection of the pool, queue one more request, hold the
connections for --hold, then report whether the database is too busy for the
given --threshold. Useful to verify pool limits and load-shedding settings.`,
	Example: `  # Expect "tooBusy: true"
  sequel probe --threshold 500ms --hold 1s

  # Exit with a non-zero code when too busy
  sequel probe --threshold 2s --hold 1s --fail`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB(db)

		report, err := probe(ctx, db, probeThreshold, probeHold)
		if err != nil {
			return cli.QueryError("probing pool", err)
		}

		if err := printYAML(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if probeFail && report.TooBusy {
			return cli.TooBusyError("database is too busy")
		}
		return nil
	},
}

func init() {
	f := probeCmd.Flags()
	f.DurationVar(&probeThreshold, "threshold", 500*time.Millisecond, "queueing time after which the database counts as too busy")
	f.DurationVar(&probeHold, "hold", time.Second, "how long to hold every connection")
	f.BoolVar(&probeFail, "fail", false, "exit with a non-zero code when too busy")
}

type probeReport struct {
	Pool      sequel.PoolStats `json:"pool"`
	Threshold string           `json:"threshold"`
	Queueing  string           `json:"queueing"`
	TooBusy   bool             `json:"tooBusy"`
}

func probe(ctx context.Context, db *sequel.DB, threshold, hold time.Duration) (probeReport, error) {
	max := int(db.Pool().Stats().Max)
	conns := make([]*sequel.Conn, 0, max)
	defer func() {
		for _, conn := range conns {
			conn.Release()
		}
	}()

	for range max {
		conn, err := db.Conn(ctx)
		if err != nil {
			return probeReport{}, err
		}
		conns = append(conns, conn)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		conn, err := db.Conn(waitCtx)
		if err == nil {
			conn.Release()
		}
	}()

	timer := time.NewTimer(hold)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return probeReport{}, ctx.Err()
	case <-timer.C:
	}

	return probeReport{
		Pool:      db.Pool().Stats(),
		Threshold: threshold.String(),
		Queueing:  db.Monitor().Wait().String(),
		TooBusy:   db.TooBusy(threshold),
	}, nil
}
