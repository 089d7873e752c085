// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/alvinbaena/breach-checker/internal/util"
	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/thinhdanggroup/executor"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	accountCmd = &cobra.Command{
		Use:   "account EMAIL...",
		Short: "Check email accounts against the haveibeenpwned.com breaches. Requires HIBP_API_KEY",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return accountCommand(cmd, args)
		},
	}
)

func init() {
	accountCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Number of accounts checked at the same time. If omitted or less than 1, defaults to the number of logical processors of the machine.")
	accountCmd.Flags().IntVar(&rps, "rps", 1, "Maximum requests per second made to the API. Set it according to your API key plan, 0 disables the limit.")

	rootCmd.AddCommand(accountCmd)
}

type accountOutcome struct {
	result hibp.AccountResult
	err    error
}

func accountCommand(cmd *cobra.Command, accounts []string) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	client, err := newClient(true)
	if err != nil {
		return err
	}

	outcomes, err := checkAccounts(cmd.Context(), client, accounts)
	if err != nil {
		return err
	}

	failed := 0
	out := cmd.OutOrStdout()
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "%s: %s\n", accounts[i], o.err)
			continue
		}

		if err = printAccount(out, o.result); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d account checks failed", failed, len(accounts))
	}
	return nil
}

// checkAccounts looks up every account on a bounded pool. The outcomes keep the order of accounts.
func checkAccounts(ctx context.Context, client *hibp.Client, accounts []string) ([]accountOutcome, error) {
	workers := threads
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(accounts) {
		workers = len(accounts)
	}

	tasks, err := executor.New(executor.Config{
		ReqPerSeconds: rps,
		QueueSize:     2 * workers,
		NumWorkers:    workers,
	})
	if err != nil {
		return nil, err
	}
	defer tasks.Close()

	s := util.Stats()
	defer s()

	log.Debug().Msgf("checking %d accounts with %d workers", len(accounts), workers)
	stat := newStatus(len(accounts))
	stat.BeginProgress()

	outcomes := make([]accountOutcome, len(accounts))
	for i := range accounts {
		if err = tasks.Publish(func(i int) {
			start := time.Now()
			res, err := client.BreachedAccount(ctx, accounts[i])
			stat.AccountChecked(res.Breached, err, time.Since(start))
			outcomes[i] = accountOutcome{result: res, err: err}
		}, i); err != nil {
			log.Panic().Err(err).Msgf("there is a programming error here.")
		}
	}

	tasks.Wait()
	stat.Done()

	return outcomes, nil
}

func printAccount(out io.Writer, res hibp.AccountResult) error {
	if !res.Breached {
		_, err := fmt.Fprintf(out, "%s: no breach found\n", res.Account)
		return err
	}

	p := message.NewPrinter(language.English)
	if _, err := p.Fprintf(out, "%s: found in %d breaches\n", res.Account, len(res.Breaches)); err != nil {
		return err
	}
	for _, b := range res.Breaches {
		if _, err := p.Fprintf(out, "  - %s (%s), %d accounts\n", b.Name, b.Date, b.PwnCount); err != nil {
			return err
		}
	}
	return nil
}
