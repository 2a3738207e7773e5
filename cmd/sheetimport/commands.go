package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetimport/internal/config"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/export"
	"github.com/JonMunkholm/sheetimport/internal/logging"
	"github.com/JonMunkholm/sheetimport/internal/store"
)

// errInvalidRows makes the import command exit non-zero when
// --fail-on-invalid is set.
var errInvalidRows = errors.New("workbook has invalid rows")

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "sheetimport",
		Short:        "Import Excel workbooks into typed records",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(".env"); err != nil {
				return err
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newImportCmd(), newTemplateCmd(), newLayoutsCmd())
	return root
}

type importOptions struct {
	layout        string
	asJSON        bool
	strict        bool
	maxRows       int
	charset       string
	recordsPath   string
	errorsPath    string
	persist       bool
	failOnInvalid bool
}

func newImportCmd() *cobra.Command {
	opts := importOptions{}

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Validate a workbook against a layout",
		Long: `Reads every sheet of the workbook bound by the layout, reports valid and
invalid rows per sheet and optionally writes the records, the invalid rows or
both to new workbooks. With --persist the valid records are copied into
PostgreSQL (DATABASE_URL).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.layout, "layout", "l", "", "Layout key (see: sheetimport layouts)")
	f.BoolVar(&opts.asJSON, "json", false, "Print the summary and invalid rows as JSON")
	f.BoolVar(&opts.strict, "strict", true, "Require the header row to match the layout")
	f.IntVar(&opts.maxRows, "max-rows", 0, "Maximum data rows per sheet (0: no limit)")
	f.StringVar(&opts.charset, "charset", "utf-8", "Text encoding of legacy .xls files")
	f.StringVar(&opts.recordsPath, "records", "", "Write the valid records to this .xlsx file")
	f.StringVar(&opts.errorsPath, "errors", "", "Write the invalid rows to this .xlsx file")
	f.BoolVar(&opts.persist, "persist", false, "Copy the valid records into the database")
	f.BoolVar(&opts.failOnInvalid, "fail-on-invalid", false, "Exit non-zero when any row is invalid")
	cmd.MarkFlagRequired("layout")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, path string, opts importOptions) error {
	def, ok := core.Get(opts.layout)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrLayoutNotFound, opts.layout)
	}

	im := core.NewImporter(core.Options{
		StrictHeader: opts.strict,
		MaxRows:      opts.maxRows,
		Charset:      opts.charset,
	}, nil)

	res, err := im.ImportFile(ctx, path, def.Binders())
	if err != nil {
		return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
	}

	var persisted map[string]int64
	if opts.persist {
		if persisted, err = persist(ctx, def, res); err != nil {
			return err
		}
	}

	if opts.recordsPath != "" {
		if err := writeFile(opts.recordsPath, func(w io.Writer) error { return export.Records(w, def, res) }); err != nil {
			return err
		}
	}
	valid, invalid := res.Totals()
	if opts.errorsPath != "" && invalid > 0 {
		if err := writeFile(opts.errorsPath, func(w io.Writer) error { return export.InvalidRows(w, def, res) }); err != nil {
			return err
		}
	}

	if opts.asJSON {
		err = printJSON(out, res, persisted)
	} else {
		err = printSummary(out, res, persisted)
	}
	if err != nil {
		return err
	}

	if opts.failOnInvalid && invalid > 0 {
		return fmt.Errorf("%w: %d invalid, %d valid", errInvalidRows, invalid, valid)
	}
	return nil
}

func persist(ctx context.Context, def core.LayoutDefinition, res *core.Result) (map[string]int64, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.Database.Enabled() {
		return nil, core.ErrPersistDisabled
	}

	pool, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	return store.New(pool, nil).Persist(ctx, def, res)
}

func printSummary(out io.Writer, res *core.Result, persisted map[string]int64) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHEET\tSCHEMA\tROWS\tVALID\tINVALID\tDROPPED\tSAVED")
	for _, s := range res.Sheets() {
		saved := "-"
		if n, ok := persisted[s.Schema]; ok {
			saved = fmt.Sprint(n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n", s.Name, s.Schema, s.Rows, s.Valid, s.Invalid, s.Dropped, saved)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, s := range res.Sheets() {
		for _, row := range res.Invalid(s.Schema) {
			msg := strings.ReplaceAll(row.Format(), "\r\n", "; ")
			if _, err := fmt.Fprintf(out, "%s row %d: %s\n", row.Sheet, row.Row, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func printJSON(out io.Writer, res *core.Result, persisted map[string]int64) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Result    *core.Result     `json:"result"`
		Persisted map[string]int64 `json:"persisted,omitempty"`
	}{res, persisted})
}

func newTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template <layout>",
		Short: "Write a blank workbook for a layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, ok := core.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", core.ErrLayoutNotFound, args[0])
			}
			if output == "" {
				output = def.Info.Key + "_template.xlsx"
			}
			if err := writeFile(output, func(w io.Writer) error { return export.Template(w, def) }); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <layout>_template.xlsx)")
	return cmd
}

func newLayoutsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List the registered layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []core.LayoutInfo
			for _, def := range core.All() {
				infos = append(infos, def.Info)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tGROUP\tLABEL\tSHEETS")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Key, info.Group, info.Label, strings.Join(info.Sheets, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

// writeFile creates path and fills it with write, removing it on failure.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
