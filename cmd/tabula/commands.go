package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-andiamo/tabula"
	"github.com/go-andiamo/tabula/config"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configFile string
	debug      bool
}

type selectFlags struct {
	table   string
	where   string
	params  []string
	columns []string
	orderBy []string
	desc    bool
	start   int
	limit   int
	lock    bool
}

func newRootCommand() *cobra.Command {
	gf := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "tabula",
		Short:         "Run queries against a MySQL, SQLite or PostgreSQL database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&gf.configFile, "config", "", "config file (default is .tabula.yaml in the working or home directory)")
	cmd.PersistentFlags().BoolVar(&gf.debug, "debug", false, "log every query to stderr")
	cmd.AddCommand(newFetchCommand(gf))
	cmd.AddCommand(newPaginateCommand(gf))
	cmd.AddCommand(newExecCommand(gf))
	return cmd
}

func newFetchCommand(gf *globalFlags) *cobra.Command {
	sf := &selectFlags{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Select rows from a table and print them as a JSON array",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), gf, func(ctx context.Context, e *tabula.Engine) error {
				b, err := sf.builder(e)
				if err != nil {
					return err
				}
				f, err := b.Fetch(ctx)
				if err != nil {
					return err
				}
				if err = f.WriteJSON(cmd.OutOrStdout()); err == nil {
					_, err = fmt.Fprintln(cmd.OutOrStdout())
				}
				return err
			})
		},
	}
	sf.register(cmd)
	return cmd
}

func newPaginateCommand(gf *globalFlags) *cobra.Command {
	sf := &selectFlags{}
	cmd := &cobra.Command{
		Use:   "paginate",
		Short: "Select one page of rows from a table and print it (with the page index) as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), gf, func(ctx context.Context, e *tabula.Engine) error {
				b, err := sf.builder(e)
				if err != nil {
					return err
				}
				p, err := b.Paginate(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	sf.register(cmd)
	return cmd
}

func newExecCommand(gf *globalFlags) *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "exec <statement> [args...]",
		Short: "Execute a statement and print the number of affected rows",
		Long: `Execute a statement and print the number of affected rows.

Positional args bind to '?' placeholders in order - named ':name' placeholders bind to --param name=value.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := parseParams(params)
			if err != nil {
				return err
			}
			for _, a := range args[1:] {
				ps = ps.Add(a)
			}
			return withEngine(cmd.Context(), gf, func(ctx context.Context, e *tabula.Engine) error {
				q := tabula.NewQuery(args[0], ps)
				if _, err := e.Run(ctx, tabula.ModeExec, q); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", q.RowCount())
				return err
			})
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "named param as name=value (repeatable)")
	return cmd
}

func (sf *selectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&sf.table, "table", "t", "", "table name")
	cmd.Flags().StringVarP(&sf.where, "where", "w", "", "where clause (use :name placeholders with --param)")
	cmd.Flags().StringArrayVarP(&sf.params, "param", "p", nil, "named param as name=value (repeatable) - without --where, params are matched for equality")
	cmd.Flags().StringSliceVarP(&sf.columns, "columns", "c", nil, "columns to select")
	cmd.Flags().StringSliceVar(&sf.orderBy, "order-by", nil, "columns to order by")
	cmd.Flags().BoolVar(&sf.desc, "desc", false, "order descending")
	cmd.Flags().IntVar(&sf.start, "start", -1, "offset of the first row")
	cmd.Flags().IntVar(&sf.limit, "limit", -1, "maximum number of rows")
	cmd.Flags().BoolVar(&sf.lock, "lock", false, "select FOR UPDATE")
	_ = cmd.MarkFlagRequired("table")
}

func (sf *selectFlags) builder(e *tabula.Engine) (*tabula.Builder, error) {
	ps, err := parseParams(sf.params)
	if err != nil {
		return nil, err
	}
	b := e.Table(sf.table).Columns(sf.columns...)
	if sf.where != "" {
		b.Where(sf.where, ps)
	} else if len(ps) > 0 {
		b.Find(ps)
	}
	if len(sf.orderBy) > 0 {
		if sf.desc {
			b.OrderDesc(sf.orderBy...)
		} else {
			b.OrderAsc(sf.orderBy...)
		}
	}
	if sf.start >= 0 {
		b.Start(sf.start)
	}
	if sf.limit >= 0 {
		b.Limit(sf.limit)
	}
	if sf.lock {
		b.Lock()
	}
	return b, nil
}

// parseParams parses name=value pairs into named params
func parseParams(pairs []string) (tabula.Params, error) {
	result := tabula.Params{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid param %q (expected name=value)", pair)
		}
		result = result.Set(name, value)
	}
	return result, nil
}

func withEngine(ctx context.Context, gf *globalFlags, fn func(ctx context.Context, e *tabula.Engine) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(gf.configFile)
	if err != nil {
		return err
	}
	e, err := tabula.Open(ctx, cfg.Server, newLogger(gf.debug || cfg.Debug, os.Stderr))
	if err != nil {
		return err
	}
	defer func() {
		_ = e.Close()
	}()
	return fn(ctx, e)
}

func newLogger(debug bool, w io.Writer) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
