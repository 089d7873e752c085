// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alvinbaena/breach-checker/internal/util"
	"github.com/alvinbaena/breach-checker/pkg/hibp"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	passwordCmd = &cobra.Command{
		Use:   "password [PASSWORD]",
		Short: "Check a password against the Pwned Passwords range API",
		Args: func(cmd *cobra.Command, args []string) error {
			if !interactive {
				if err := cobra.ExactArgs(1)(cmd, args); err != nil {
					return err
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return passwordSession(cmd)
			}
			return passwordCommand(cmd, args[0])
		},
	}
)

func init() {
	passwordCmd.Flags().BoolVarP(&interactive, "interactive", "n", false, "Interactive mode.")
	passwordCmd.Flags().BoolVarP(&hashed, "hashed", "s", false, "If the supplied password will be a Hexadecimal SHA1 hash or a plain text string.")

	rootCmd.AddCommand(passwordCmd)
}

func passwordCommand(cmd *cobra.Command, password string) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	client, err := newClient(false)
	if err != nil {
		return err
	}

	return checkPassword(cmd.Context(), cmd.OutOrStdout(), client, password)
}

func passwordSession(cmd *cobra.Command) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	client, err := newClient(false)
	if err != nil {
		return err
	}

	var label string
	if hashed {
		label = "SHA1 Hex hash"
	} else {
		label = "Password"
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("please enter a valid password")
			}

			if hashed {
				if _, err := hibp.ParseHashRange(input); err != nil {
					return errors.New("input is not a valid SHA1 Hexadecimal hash")
				}
			}
			return nil
		},
	}

	if !hashed {
		prompt.Mask = '*'
	} else {
		log.Info().Msgf("Flag 'hashed' is set. Please use SHA1 Hashed passwords.")
	}

	log.Info().Msgf("Running interactive session. ^C to exit")
	if err = runInteractiveSession(cmd, prompt, client); err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			log.Info().Msgf("Goodbye")
		} else {
			log.Error().Err(err).Msgf("Error during interactive session")
		}
		// No return to avoid the default cobra error message
		return nil
	}

	return nil
}

func runInteractiveSession(cmd *cobra.Command, prompt promptui.Prompt, client *hibp.Client) error {
	for {
		result, err := prompt.Run()
		if err != nil {
			return err
		}

		if err = checkPassword(cmd.Context(), cmd.OutOrStdout(), client, result); err != nil {
			log.Error().Err(err).Msg("Error during check")
		}
	}
}

func checkPassword(ctx context.Context, out io.Writer, client *hibp.Client, input string) (err error) {
	var res hibp.PasswordCheck
	if hashed {
		res, err = client.CheckHash(ctx, input)
	} else {
		res, err = client.CheckPassword(ctx, input)
	}
	if err != nil {
		return err
	}

	if res.Breached {
		p := message.NewPrinter(language.English)
		_, err = p.Fprintf(out, "Password is present. It has appeared %d times in known breaches\n", res.Count)
	} else {
		_, err = fmt.Fprintln(out, "Password is not present in known breaches")
	}
	return err
}
