package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/spektr-org/evalpivot/config"
	"github.com/spektr-org/evalpivot/helpers"
	"github.com/spektr-org/evalpivot/store"
)

// options holds the persistent flags shared by every command.
type options struct {
	file       string
	configPath string
	verbose    bool
	logger     *log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:     "evalpivot",
		Short:   "Pivot tables over evaluation-run JSON",
		Long:    "Flatten evaluation-run JSON or JSONL into path-keyed records, then group, filter and aggregate them.",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			out := io.Discard
			if opts.verbose {
				out = cmd.ErrOrStderr()
			}
			opts.logger = log.New(out, "", log.LstdFlags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "JSON / JSONL records (path or afs URL)")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "dashboard YAML (path or afs URL)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(
		newFlattenCmd(opts),
		newFieldsCmd(opts),
		newPivotCmd(opts),
		newBrowseCmd(opts),
	)
	return root
}

// dashboard loads --config (or defaults) and applies --file.
func (o *options) dashboard(cmd *cobra.Command) (*config.Dashboard, error) {
	d := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(cmd.Context(), o.configPath)
		if err != nil {
			return nil, err
		}
		d = loaded
		o.logger.Printf("📋 Loaded dashboard %s", o.configPath)
	}
	if o.file != "" {
		d.Source = o.file
	}
	if d.Source == "" {
		return nil, fmt.Errorf("no records: pass --file or set source in the dashboard config")
	}
	return d, nil
}

// load fills a store from the dashboard's source.
func (o *options) load(cmd *cobra.Command, d *config.Dashboard) (*store.Store, error) {
	flats, err := helpers.LoadRecords(cmd.Context(), d.Source)
	if err != nil {
		return nil, err
	}
	s := store.New(store.WithCapacity(d.Capacity), store.WithLogger(o.logger))
	s.IngestFlat(flats...)
	o.logger.Printf("📊 Loaded %d records from %s", s.Len(), d.Source)
	return s, nil
}

// ============================================================================
// FLATTEN / FIELDS
// ============================================================================

func newFlattenCmd(opts *options) *cobra.Command {
	var selectKey string
	cmd := &cobra.Command{
		Use:   "flatten",
		Short: "Print each document as one flat JSON record per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.dashboard(cmd)
			if err != nil {
				return err
			}
			docs, err := helpers.LoadDocuments(cmd.Context(), d.Source)
			if err != nil {
				return err
			}
			return writeFlat(cmd.OutOrStdout(), docs, selectKey)
		},
	}
	cmd.Flags().StringVar(&selectKey, "select", "", "flatten only the sub-document at this path-key, e.g. $.results")
	return cmd
}

func newFieldsCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List discovered path-keys with their kind and sample values",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.dashboard(cmd)
			if err != nil {
				return err
			}
			s, err := opts.load(cmd, d)
			if err != nil {
				return err
			}
			fields := s.Fields()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), fields)
			}
			return writeFields(cmd.OutOrStdout(), fields)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print fields as JSON")
	return cmd
}
