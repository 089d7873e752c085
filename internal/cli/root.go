// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"github.com/alvinbaena/breach-checker/internal/api"
	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "breach-checker [COMMAND] [OPTIONS]",
		Short: "Check passwords and email accounts against the haveibeenpwned.com breaches",
		Long: "Check passwords against the Pwned Passwords range API and email accounts against the " +
			"haveibeenpwned.com breach data. Passwords never leave this machine, only the first 5 characters " +
			"of their SHA1 hash are sent. This command also serves the checks as a web page and a JSON API",
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print more information on the processing")
	rootCmd.PersistentFlags().BoolVar(&profile, "profile", false, "Enable the profiling server (pprof) when running commands")
	rootCmd.PersistentFlags().Uint16Var(&pprofPort, "profile-port", 6060, "The port to use for the pprof server. Only used if the profile flag is set")
}

func Execute() error {
	return rootCmd.Execute()
}

// newClient builds the HIBP client from the environment. Only account lookups need the API key.
func newClient(requireKey bool) (*hibp.Client, error) {
	cfg, err := api.LoadClientConfig(api.NewViper(), requireKey)
	if err != nil {
		return nil, err
	}

	return hibp.NewClient(cfg), nil
}
