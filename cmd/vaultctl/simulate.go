package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/xraph/vault"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/transfer"
)

func newSimulateCmd(logger func() *slog.Logger) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a YAML billing scenario against an in-memory vault",
		Long: `Replay a YAML billing scenario against an in-memory vault.

Each step names an op (create, deposit, advance, charge, usage, oneoff,
pause, resume, cancel, batch, withdraw, recover, rotate_admin,
set_min_topup, estimate, show) and an optional expected result code.

Examples:
  vaultctl simulate -f scenario.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(file)
			if err != nil {
				return err
			}
			return simulate(cmd.Context(), sc, cmd.OutOrStdout(), logger())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "scenario file")
	_ = cmd.MarkFlagRequired("file") //nolint:errcheck // flag is defined above
	return cmd
}

// simClock is advanced by the scenario's advance steps.
type simClock struct{ now atomic.Uint64 }

func (c *simClock) Now() uint64 { return c.now.Load() }

type sim struct {
	v     *vault.Vault
	clock *simClock
	book  *transfer.Ledger
	sc    *scenario
}

type opFunc func(ctx context.Context, s *sim, st step) (string, error)

var ops = map[string]opFunc{
	"create": func(ctx context.Context, s *sim, st step) (string, error) {
		id, err := s.v.Create(ctx, st.As, st.Merchant, st.Amount, st.Interval, st.Usage)
		return fmt.Sprintf("id=%s", id), err
	},
	"deposit": func(ctx context.Context, s *sim, st step) (string, error) {
		err := s.v.Deposit(ctx, st.ID, st.As, st.Amount)
		return s.balance(ctx, st.ID), err
	},
	"advance": func(_ context.Context, s *sim, st step) (string, error) {
		s.clock.now.Add(st.Seconds)
		return fmt.Sprintf("now=%d", s.clock.Now()), nil
	},
	"charge": func(ctx context.Context, s *sim, st step) (string, error) {
		err := s.v.ChargeInterval(ctx, s.admin(st), st.ID, st.Key)
		return s.balance(ctx, st.ID), err
	},
	"usage": func(ctx context.Context, s *sim, st step) (string, error) {
		err := s.v.ChargeUsage(ctx, s.admin(st), st.ID, st.Amount)
		return s.balance(ctx, st.ID), err
	},
	"oneoff": func(ctx context.Context, s *sim, st step) (string, error) {
		err := s.v.ChargeOneOff(ctx, st.As, st.ID, st.Amount)
		return s.balance(ctx, st.ID), err
	},
	"pause": func(ctx context.Context, s *sim, st step) (string, error) {
		return "", s.v.Pause(ctx, st.ID, st.As)
	},
	"resume": func(ctx context.Context, s *sim, st step) (string, error) {
		return "", s.v.Resume(ctx, st.ID, st.As)
	},
	"cancel": func(ctx context.Context, s *sim, st step) (string, error) {
		return "", s.v.Cancel(ctx, st.ID, st.As)
	},
	"batch": func(ctx context.Context, s *sim, st step) (string, error) {
		results, err := s.v.BatchCharge(ctx, s.admin(st), st.IDs)
		if err != nil {
			return "", err
		}
		detail := ""
		for i, r := range results {
			detail += fmt.Sprintf(" %s=%s", st.IDs[i], r.ErrorCode)
		}
		return "results:" + detail, nil
	},
	"withdraw": func(ctx context.Context, s *sim, st step) (string, error) {
		return "", s.v.WithdrawMerchantFunds(ctx, st.As, st.Amount)
	},
	"recover": func(ctx context.Context, s *sim, st step) (string, error) {
		rec, err := s.v.RecoverStrandedFunds(ctx, s.admin(st), st.Recipient, st.Amount, st.Reason)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("recovery=%s", rec.ID), nil
	},
	"rotate_admin": func(ctx context.Context, s *sim, st step) (string, error) {
		return "", s.v.RotateAdmin(ctx, s.admin(st), st.Recipient)
	},
	"set_min_topup": func(ctx context.Context, s *sim, st step) (string, error) {
		return "", s.v.SetMinTopup(ctx, s.admin(st), st.Amount)
	},
	"estimate": func(ctx context.Context, s *sim, st step) (string, error) {
		need, err := s.v.EstimateTopup(ctx, st.ID, st.Periods)
		return fmt.Sprintf("topup=%s", need), err
	},
	"show": func(ctx context.Context, s *sim, st step) (string, error) {
		sub, err := s.v.GetSubscription(ctx, st.ID)
		if err != nil {
			return "", err
		}
		info := vault.NextChargeInfo(sub)
		return fmt.Sprintf("status=%s balance=%s next=%d due=%t",
			sub.Status, sub.PrepaidBalance, info.NextChargeTimestamp, info.IsChargeExpected), nil
	},
}

// admin returns the step's caller, defaulting to the current admin.
func (s *sim) admin(st step) vault.Principal {
	if !st.As.IsZero() {
		return st.As
	}
	if p, err := s.v.GetAdmin(context.Background()); err == nil {
		return p
	}
	return s.sc.Admin
}

func (s *sim) balance(ctx context.Context, id vault.SubscriptionID) string {
	sub, err := s.v.GetSubscription(ctx, id)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("balance=%s status=%s", sub.PrepaidBalance, sub.Status)
}

// simulate runs every step and reports expectation mismatches as one error.
func simulate(ctx context.Context, sc *scenario, out io.Writer, logger *slog.Logger) error {
	s := &sim{clock: &simClock{}, book: transfer.NewLedger(), sc: sc}
	s.clock.now.Store(sc.Start)

	for p, amt := range sc.Balances {
		if err := s.book.Mint(sc.Asset, p, amt); err != nil {
			return err
		}
	}

	s.v = vault.New(memory.New(),
		vault.WithClock(s.clock),
		vault.WithTransfer(s.book),
		vault.WithLogger(logger),
	)
	if err := s.v.Start(ctx); err != nil {
		return err
	}
	defer s.v.Stop() //nolint:errcheck // memory store close cannot fail

	if err := s.v.Init(ctx, sc.Asset, sc.Admin, sc.MinTopup, sc.Custody); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	var mismatches int
	for i, st := range sc.Steps {
		detail, err := ops[st.Op](ctx, s, st)
		code := vault.CodeOf(err)

		mark := " "
		if st.Expect != "" && st.Expect != code.String() {
			mark = "!"
			mismatches++
		}
		fmt.Fprintf(out, "%s %3d %-13s %-28s %s\n", mark, i+1, st.Op, code, detail)
	}

	printBalances(out, s)

	if mismatches > 0 {
		return fmt.Errorf("%d step(s) did not match the expected result", mismatches)
	}
	return nil
}

func printBalances(out io.Writer, s *sim) {
	seen := map[vault.Principal]bool{s.sc.Custody: true}
	for p := range s.sc.Balances {
		seen[p] = true
	}
	for _, st := range s.sc.Steps {
		for _, p := range []vault.Principal{st.As, st.Merchant, st.Recipient} {
			if !p.IsZero() {
				seen[p] = true
			}
		}
	}

	principals := make([]string, 0, len(seen))
	for p := range seen {
		principals = append(principals, p.String())
	}
	sort.Strings(principals)

	fmt.Fprintln(out, "\nbalances:")
	for _, p := range principals {
		fmt.Fprintf(out, "  %-16s %s\n", p, s.book.Balance(s.sc.Asset, vault.Principal(p)))
	}
}
