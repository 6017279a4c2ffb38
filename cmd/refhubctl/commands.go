package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
)

// run resolves the kind, opens the store and hands fn a bounded context.
func (c *cli) run(cmd *cobra.Command, kindArg string, fn func(ctx context.Context, o ops, p refdata.Principal) (refdata.Result, error)) error {
	kind, err := parseKind(kindArg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Long())
	defer cancel()

	engines, p, closeFn, err := c.engines(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := fn(ctx, opsForKind(engines, kind), p)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), res)
}

type listOptions struct {
	Filter  string
	Country string
	ID      string
}

func newListCmd(c *cli) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List entries of one kind (reason-codes, countries, states, castes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Country != "" {
				kind, err := parseKind(args[0])
				if err != nil {
					return err
				}
				if kind != "states" {
					return errors.New("--country only applies to states")
				}
			}
			return c.run(cmd, args[0], func(ctx context.Context, o ops, p refdata.Principal) (refdata.Result, error) {
				switch {
				case opts.ID != "":
					return o.get(ctx, p, opts.ID)
				case opts.Country != "":
					return o.byCountry(ctx, p, opts.Country)
				default:
					return o.list(ctx, p, opts.Filter)
				}
			})
		},
	}
	cmd.Flags().StringVar(&opts.Filter, "filter", "all", "all, active or deleted")
	cmd.Flags().StringVar(&opts.Country, "country", "", "states only: active states of this country code")
	cmd.Flags().StringVar(&opts.ID, "id", "", "fetch a single entry by id")
	return cmd
}

type mutateOptions struct {
	Data     string
	DataFile string
}

func (o *mutateOptions) payload(required bool) ([]byte, error) {
	switch {
	case o.Data != "" && o.DataFile != "":
		return nil, errors.New("use either --data or --data-file, not both")
	case o.DataFile != "":
		return os.ReadFile(o.DataFile)
	case strings.TrimSpace(o.Data) != "":
		return []byte(o.Data), nil
	case required:
		return nil, errors.New("--data or --data-file is required")
	}
	return nil, nil
}

func (o *mutateOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Data, "data", "", "entry fields as a JSON object")
	cmd.Flags().StringVar(&o.DataFile, "data-file", "", "read entry fields from a JSON file")
}

func newCreateCmd(c *cli) *cobra.Command {
	opts := &mutateOptions{}
	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.payload(true)
			if err != nil {
				return err
			}
			return c.run(cmd, args[0], func(ctx context.Context, o ops, p refdata.Principal) (refdata.Result, error) {
				return o.create(ctx, p, data)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	opts := &mutateOptions{}
	cmd := &cobra.Command{
		Use:   "edit <kind> <id>",
		Short: "Change fields of an active entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.payload(true)
			if err != nil {
				return err
			}
			return c.run(cmd, args[0], func(ctx context.Context, o ops, p refdata.Principal) (refdata.Result, error) {
				return o.edit(ctx, p, args[1], data)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	opts := &mutateOptions{}
	cmd := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Soft-delete an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.payload(false)
			if err != nil {
				return err
			}
			return c.run(cmd, args[0], func(ctx context.Context, o ops, p refdata.Principal) (refdata.Result, error) {
				return o.remove(ctx, p, args[1], data)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}
