package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadimport-cli/internal/fetcher"
	"github.com/sells-group/leadimport-cli/internal/importer"
	"github.com/sells-group/leadimport-cli/internal/model"
)

var (
	importBackend       string
	importMapFlags      []string
	importPresetPath    string
	importDefaultSource string
	importDefaultStatus string
	importFormat        string
	importDryRun        bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|url>",
	Short: "Import leads from a delimited file",
	Long: "Fetches a CSV or XLSX lead file from a local path, HTTP(S) URL, or FTP URL, " +
		"infers the column-to-field mapping from the headers, and creates one lead per row. " +
		"Rows that fail never stop the run; a per-row error report is printed at the end.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source := args[0]

		f := fetcher.New(fetcher.Options{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
		})
		data, err := f.Fetch(ctx, source)
		if err != nil {
			return err
		}

		table, err := loadTable(source, data)
		if err != nil {
			return err
		}

		mapping, defaults, err := resolveMapping(table.Headers)
		if err != nil {
			return err
		}

		if !mapping.IsValid() {
			fmt.Fprintf(os.Stderr, "Detected mapping: %s\n", mapping)
			return eris.Wrap(importer.ErrMappingIncomplete,
				"use --map name=Column and --map email=Column to assign the missing fields")
		}

		rows := importer.Project(table, mapping, defaults)

		if importDryRun {
			printPreview(os.Stdout, mapping, defaults, rows)
			return nil
		}

		env, err := initBackend(ctx, importBackend)
		if err != nil {
			return err
		}
		defer env.Close()

		warnUnknownDefaults(env, defaults)

		fileName := fetcher.Name(source)
		run, err := env.Store.CreateImportRun(ctx, fileName, env.Backend, len(rows))
		if err != nil {
			return err
		}

		zap.L().Info("import started",
			zap.String("run_id", run.ID),
			zap.String("file", fileName),
			zap.String("backend", env.Backend),
			zap.Int("total_rows", len(rows)),
		)

		summary, execErr := importer.Execute(ctx, rows, env.Create, importer.ExecOptions{
			Progress: func(pct int) {
				zap.L().Debug("import progress", zap.Int("percent", pct))
			},
			OnOutcome: func(o model.Outcome) {
				if o.Kind == model.OutcomeCreated {
					return
				}
				zap.L().Warn("row not imported",
					zap.Int("row", o.Row),
					zap.String("name", o.Name),
					zap.String("reason", o.Reason),
				)
			},
		})

		status := model.RunStatusComplete
		if execErr != nil {
			status = model.RunStatusAborted
		}
		if err := env.Store.CompleteImportRun(ctx, run.ID, status, summary); err != nil {
			// Run bookkeeping must not mask the import result.
			zap.L().Error("failed to record import run", zap.String("run_id", run.ID), zap.Error(err))
		}

		fmt.Fprintf(os.Stdout, "%s\n\n", importer.Headline(importer.Classify(summary)))
		importer.FormatSummary(os.Stdout, summary)
		fmt.Fprintf(os.Stdout, "\nRun ID: %s\n", run.ID)

		return execErr
	},
}

func init() {
	importCmd.Flags().StringVar(&importBackend, "backend", "", "lead backend: store, salesforce, or notion (default from config)")
	importCmd.Flags().StringArrayVar(&importMapFlags, "map", nil, "override a field mapping, e.g. --map email=Work Email (repeatable)")
	importCmd.Flags().StringVar(&importPresetPath, "preset", "", "path to a saved mapping preset (YAML)")
	importCmd.Flags().StringVar(&importDefaultSource, "default-source", "", "source applied to rows without a source column")
	importCmd.Flags().StringVar(&importDefaultStatus, "default-status", "", "status applied to rows without a status column")
	importCmd.Flags().StringVar(&importFormat, "format", "", "input format: csv or xlsx (default by file extension)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and map without creating any leads")
	rootCmd.AddCommand(importCmd)
}

// loadTable parses the payload as CSV unless the format flag or the file
// extension says XLSX.
func loadTable(source string, data []byte) (*importer.RawTable, error) {
	format := importFormat
	if format == "" {
		if strings.EqualFold(filepath.Ext(fetcher.Name(source)), ".xlsx") {
			format = "xlsx"
		} else {
			format = "csv"
		}
	}

	switch format {
	case "csv":
		return importer.Parse(string(data))
	case "xlsx":
		return importer.ParseXLSX(data)
	default:
		return nil, eris.Errorf("unsupported format: %s", format)
	}
}

// resolveMapping layers the preset and --map overrides on top of the mapping
// inferred from the headers, and resolves default source/status values.
func resolveMapping(headers []string) (importer.FieldMapping, importer.Defaults, error) {
	mapping := importer.InferMapping(headers)
	defaults := importer.Defaults{
		Source: cfg.Import.DefaultSource,
		Status: cfg.Import.DefaultStatus,
	}

	if importPresetPath != "" {
		preset, err := importer.LoadMappingPreset(importPresetPath)
		if err != nil {
			return nil, defaults, err
		}
		for field, column := range preset.Mapping {
			mapping.Set(field, column)
		}
		if preset.Defaults.Source != "" {
			defaults.Source = preset.Defaults.Source
		}
		if preset.Defaults.Status != "" {
			defaults.Status = preset.Defaults.Status
		}
	}

	for _, assignment := range importMapFlags {
		if err := mapping.ApplyAssignment(assignment); err != nil {
			return nil, defaults, err
		}
	}

	if importDefaultSource != "" {
		defaults.Source = importDefaultSource
	}
	if importDefaultStatus != "" {
		defaults.Status = importDefaultStatus
	}

	return mapping, defaults, nil
}

// warnUnknownDefaults logs when a default value is not in the backend's
// reference data. Imports proceed regardless.
func warnUnknownDefaults(env *backendEnv, defaults importer.Defaults) {
	if defaults.Source != "" && !env.Ref.HasSource(defaults.Source) {
		zap.L().Warn("default source not in reference data",
			zap.String("source", defaults.Source),
			zap.Strings("known", env.Ref.SourceNames()),
		)
	}
	if defaults.Status != "" && !env.Ref.HasStatus(defaults.Status) {
		zap.L().Warn("default status not in reference data",
			zap.String("status", defaults.Status),
			zap.Strings("known", env.Ref.StatusNames()),
		)
	}
}

// printPreview shows the resolved mapping and the first projected rows
// without creating anything.
func printPreview(out *os.File, mapping importer.FieldMapping, defaults importer.Defaults, rows []importer.ProjectedRow) {
	fmt.Fprintf(out, "Mapping: %s\n", mapping)
	fmt.Fprintf(out, "Defaults: source=%s status=%s\n", defaults.Source, defaults.Status)
	fmt.Fprintf(out, "Rows: %d\n\n", len(rows))

	const previewLimit = 10
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROW\tNAME\tEMAIL\tPHONE\tSOURCE\tSTATUS\tORGANIZATION\tVALID")
	for i, row := range rows {
		if i >= previewLimit {
			fmt.Fprintf(w, "...\t(%d more rows)\n", len(rows)-previewLimit)
			break
		}
		c := row.Candidate
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%v\n",
			row.Line, c.Name, c.Email, c.Phone, c.Source, c.Status, c.Organization, c.Valid())
	}
	w.Flush()
}
