// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"strings"

	"github.com/alvinbaena/breach-checker/internal/util"
	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	breachCmd = &cobra.Command{
		Use:   "breach NAME",
		Short: "Show the details of a single breach",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return breachCommand(cmd, args[0])
		},
	}

	latestCmd = &cobra.Command{
		Use:   "latest",
		Short: "List the most recent breaches by breach date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return latestCommand(cmd)
		},
	}
)

func init() {
	latestCmd.Flags().IntVarP(&limit, "limit", "l", hibp.LatestLimit, "Number of breaches to list.")

	rootCmd.AddCommand(breachCmd)
	rootCmd.AddCommand(latestCmd)
}

func breachCommand(cmd *cobra.Command, name string) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	client, err := newClient(false)
	if err != nil {
		return err
	}

	breach, err := client.Breach(cmd.Context(), name)
	if err != nil {
		return err
	}

	if breach == nil {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hibp.NotFoundMessage(name))
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), breach.Summary())
	return err
}

func latestCommand(cmd *cobra.Command) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	client, err := newClient(false)
	if err != nil {
		return err
	}

	records, err := client.LatestBreaches(cmd.Context(), limit)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	for i, r := range records {
		line := p.Sprintf("%2d. %s (%s), %d accounts", i+1, r.Name, r.Date, r.PwnCount)
		if len(r.DataClasses) > 0 {
			line += ": " + strings.Join(r.DataClasses, ", ")
		}
		if _, err = fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	return nil
}
