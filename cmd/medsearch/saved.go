package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.mau.fi/util/dbutil"

	"github.com/beeper/medsearch/pkg/savedresults"
	"github.com/beeper/medsearch/pkg/search"
	"github.com/beeper/medsearch/pkg/shared/stringutil"
)

type savedOptions struct {
	root   *rootOptions
	dbPath string
	userID string
}

func (o *savedOptions) open(cmd *cobra.Command) (*savedresults.Store, func(), error) {
	raw, err := sql.Open("sqlite3", o.dbPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := dbutil.NewWithDB(raw, "sqlite3")
	if err != nil {
		_ = raw.Close()
		return nil, nil, err
	}
	userID := stringutil.FirstNonEmpty(o.userID, os.Getenv("MEDSEARCH_USER"), "local")
	store := savedresults.NewStore(db, userID)
	if err := store.Upgrade(cmd.Context()); err != nil {
		_ = raw.Close()
		return nil, nil, fmt.Errorf("prepare %s: %w", o.dbPath, err)
	}
	return store, func() { _ = raw.Close() }, nil
}

func newSavedCmd(root *rootOptions) *cobra.Command {
	opts := &savedOptions{root: root}
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved search results",
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "medsearch.db", "SQLite database for saved results")
	cmd.PersistentFlags().StringVar(&opts.userID, "user", "", "User the saved results belong to (default $MEDSEARCH_USER or \"local\")")
	cmd.AddCommand(
		newSavedAddCmd(opts),
		newSavedListCmd(opts),
		newSavedUpdateCmd(opts),
		newSavedRemoveCmd(opts),
	)
	return cmd
}

func newSavedAddCmd(opts *savedOptions) *cobra.Command {
	var (
		result search.SearchResult
		notes  string
		tags   string
	)
	cmd := &cobra.Command{
		Use:   "add <result-id>",
		Short: "Save a search result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			result.ID = args[0]
			result.EvidenceLevel = search.ClassifyEvidenceLevel(result.Title + " " + result.Snippet)
			result.ContentType = search.ClassifyContentType(result.Title + " " + result.Snippet)
			saved, err := store.Save(cmd.Context(), result, notes, stringutil.SplitCSV(tags))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), saved)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP((*string)(&result.Provider), "provider", "p", "", "Provider the result came from")
	flags.StringVar(&result.Title, "title", "", "Result title")
	flags.StringVar(&result.URL, "url", "", "Result URL")
	flags.StringVar(&result.Snippet, "snippet", "", "Result snippet")
	flags.StringVar(&result.Source, "source", "", "Result source")
	flags.StringVar(&notes, "notes", "", "Notes to attach")
	flags.StringVar(&tags, "tags", "", "Comma-separated tags")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newSavedListCmd(opts *savedOptions) *cobra.Command {
	var (
		filter   savedresults.ListFilter
		provider string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved results, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			filter.Provider = search.ProviderID(provider)
			entries, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []savedresults.SavedResult{}
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&provider, "provider", "p", "", "Only results from this provider")
	flags.StringVar(&filter.Tag, "tag", "", "Only results with this tag")
	flags.StringVar(&filter.Text, "text", "", "Only results whose title, snippet or notes contain this text")
	flags.IntVarP(&filter.Limit, "limit", "n", 0, "Maximum number of results")
	return cmd
}

func newSavedUpdateCmd(opts *savedOptions) *cobra.Command {
	var (
		provider string
		notes    string
		tags     string
	)
	cmd := &cobra.Command{
		Use:   "update <result-id>",
		Short: "Change the notes or tags of a saved result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch savedresults.Patch
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}
			if cmd.Flags().Changed("tags") {
				parsed := stringutil.SplitCSV(tags)
				patch.Tags = &parsed
			}
			if patch.Notes == nil && patch.Tags == nil {
				return fmt.Errorf("nothing to update: pass --notes or --tags")
			}
			store, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			updated, err := store.Update(cmd.Context(), args[0], search.ProviderID(provider), patch)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), updated)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&provider, "provider", "p", "", "Provider the result came from")
	flags.StringVar(&notes, "notes", "", "New notes")
	flags.StringVar(&tags, "tags", "", "New comma-separated tags, replacing the old ones")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func newSavedRemoveCmd(opts *savedOptions) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:     "remove <result-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved result",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			removed, err := store.Remove(cmd.Context(), args[0], search.ProviderID(provider))
			if err != nil {
				return err
			}
			if !removed {
				return savedresults.ErrNotFound
			}
			opts.root.log.Info().Str("result_id", args[0]).Str("provider", provider).Msg("Removed saved result")
			return nil
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Provider the result came from")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}
