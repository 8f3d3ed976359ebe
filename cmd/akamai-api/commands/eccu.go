package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/akamai-api/akamai-api/internal/constants"
	"github.com/akamai-api/akamai-api/pkg/akamai"
	"github.com/spf13/cobra"
)

type publishFlags struct {
	notes        string
	version      string
	emails       []string
	propertyType string
	exactMatch   bool

	exactMatchSet bool
}

func (a *App) installEccu() {
	cmd := &cobra.Command{
		Use:   "eccu",
		Short: "Manage ECCU requests",
		Long:  "List, publish, update and destroy Edge Content Control Utility (ECCU) requests.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var verbose bool
	withContents := func(c *cobra.Command) *cobra.Command {
		c.Flags().BoolVar(&verbose, "contents", false, "retrieve the content of the request files")
		return c
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ids",
			Short: "List the codes of every ECCU request",
			Args:  cobra.NoArgs,
			RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, _ []string) (any, error) {
				ids, err := e.AllIDs(ctx)
				return idsOutput{IDs: ids}, err
			}),
		},
		withContents(&cobra.Command{
			Use:   "find <code>",
			Short: "Print an ECCU request",
			Args:  cobra.MatchAll(cobra.ExactArgs(1), codeArg),
			RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, args []string) (any, error) {
				r, err := e.Find(ctx, mustCode(args[0]), verbose)
				return newEccuRequestOutput(r), err
			}),
		}),
		withContents(&cobra.Command{
			Use:   "first",
			Short: "Print the first ECCU request",
			Args:  cobra.NoArgs,
			RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, _ []string) (any, error) {
				r, err := e.First(ctx, verbose)
				return newEccuRequestOutput(r), err
			}),
		}),
		withContents(&cobra.Command{
			Use:   "last",
			Short: "Print the last ECCU request",
			Args:  cobra.NoArgs,
			RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, _ []string) (any, error) {
				r, err := e.Last(ctx, verbose)
				return newEccuRequestOutput(r), err
			}),
		}),
		withContents(&cobra.Command{
			Use:   "all",
			Short: "Print every ECCU request",
			Args:  cobra.NoArgs,
			RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, _ []string) (any, error) {
				requests, err := e.All(ctx, verbose)
				out := requestsOutput{Requests: make([]eccuRequestOutput, 0, len(requests))}
				for _, r := range requests {
					out.Requests = append(out.Requests, newEccuRequestOutput(r))
				}
				return out, err
			}),
		}),
		a.publishCmd(),
		&cobra.Command{
			Use:   "update-notes <code> <notes>",
			Short: "Replace the notes of an ECCU request",
			Args:  cobra.MatchAll(cobra.ExactArgs(2), codeArg),
			RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, args []string) (any, error) {
				code := mustCode(args[0])
				ok, err := e.SetNotes(ctx, code, args[1])
				return successOutput{Code: code, Success: ok}, err
			}),
		},
		&cobra.Command{
			Use:   "update-email <code> <email>",
			Short: "Replace the status change email of an ECCU request",
			Args:  cobra.MatchAll(cobra.ExactArgs(2), codeArg),
			RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, args []string) (any, error) {
				code := mustCode(args[0])
				ok, err := e.SetEmail(ctx, code, args[1])
				return successOutput{Code: code, Success: ok}, err
			}),
		},
		&cobra.Command{
			Use:   "destroy <code>",
			Short: "Destroy an ECCU request",
			Args:  cobra.MatchAll(cobra.ExactArgs(1), codeArg),
			RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, args []string) (any, error) {
				code := mustCode(args[0])
				ok, err := e.Destroy(ctx, code)
				return successOutput{Code: code, Success: ok}, err
			}),
		},
	)

	a.cmd.AddCommand(cmd)
}

func (a *App) publishCmd() *cobra.Command {
	var f publishFlags

	cmd := &cobra.Command{
		Use:   "publish <property> <file>",
		Short: "Publish an ECCU rules file for a property",
		Args:  cobra.ExactArgs(2),
		RunE: a.withEccu(func(ctx context.Context, e akamai.Eccu, args []string) (any, error) {
			opts := akamai.PublishOptions{
				Notes:        f.notes,
				Version:      f.version,
				Emails:       f.emails,
				PropertyType: f.propertyType,
			}
			if f.exactMatchSet {
				opts.ExactMatch = &f.exactMatch
			}
			code, err := e.PublishFile(ctx, args[0], args[1], opts)
			return codeOutput{Code: code}, err
		}),
	}

	cmd.Flags().StringVar(&f.notes, "notes", "", fmt.Sprintf("notes of the request (default from configuration, or %q)", constants.DefaultNotes))
	cmd.Flags().StringVar(&f.version, "version", "", "version string of the request")
	cmd.Flags().StringArrayVar(&f.emails, "email", nil, "email notified on status changes, can be repeated")
	cmd.Flags().StringVar(&f.propertyType, "property-type", "", fmt.Sprintf("type of the property (default from configuration, or %q)", constants.DefaultPropertyType))
	cmd.Flags().BoolVar(&f.exactMatch, "exact-match", constants.DefaultPropertyExactMatch, "match the property name exactly")

	// The exact match flag only overrides the configured default when set.
	cmd.PreRun = func(c *cobra.Command, _ []string) {
		f.exactMatchSet = c.Flags().Changed("exact-match")
	}

	return cmd
}

// withEccu returns a command runner calling fn with the ECCU manager, and printing its result.
func (a *App) withEccu(fn func(ctx context.Context, e akamai.Eccu, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := a.client()
		if err != nil {
			return err
		}

		out, err := fn(cmd.Context(), c.Eccu(), args)
		if err != nil {
			return err
		}
		return write(cmd.OutOrStdout(), a.config.Format, out)
	}
}

// codeArg validates that the first argument is a request code.
func codeArg(_ *cobra.Command, args []string) error {
	if _, err := strconv.Atoi(args[0]); err != nil {
		return fmt.Errorf("invalid request code %q: must be an integer", args[0])
	}
	return nil
}

// mustCode converts an argument validated by codeArg.
func mustCode(arg string) int {
	code, err := strconv.Atoi(arg)
	if err != nil {
		panic(fmt.Sprintf("code %q was not validated: %v", arg, err))
	}
	return code
}
