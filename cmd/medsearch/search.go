package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/beeper/medsearch/pkg/search"
	"github.com/beeper/medsearch/pkg/shared/stringutil"
)

type queryFlags struct {
	specialty      string
	evidence       string
	contentTypes   string
	recency        string
	limit          int
	providers      string
	contentFilters string
	formats        string
	authorities    string
	peerReviewed   bool
	openAccess     bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.specialty, "specialty", "", "Medical specialty, e.g. cardiology")
	flags.StringVar(&f.evidence, "evidence", "", "Comma-separated evidence levels, e.g. systematic-review,rct")
	flags.StringVar(&f.contentTypes, "content", "", "Comma-separated content types, e.g. clinical-guideline")
	flags.StringVar(&f.recency, "recency", "", "Recency window: past-day, past-week, past-month, past-year, past-5-years")
	flags.IntVarP(&f.limit, "limit", "n", 0, "Maximum number of results")
	flags.StringVarP(&f.providers, "providers", "p", "", "Comma-separated provider ids to restrict the search to")
	flags.StringVar(&f.contentFilters, "filter-content", "", "Advanced content filters, e.g. clinical-guidelines,rcts")
	flags.StringVar(&f.formats, "filter-format", "", "Advanced file formats: pdf, doc, ppt, html")
	flags.StringVar(&f.authorities, "filter-authority", "", "Advanced source authorities, e.g. government,journals")
	flags.BoolVar(&f.peerReviewed, "peer-reviewed", false, "Only peer reviewed sources")
	flags.BoolVar(&f.openAccess, "open-access", false, "Only open access sources")
}

func (f *queryFlags) query(text string) search.SearchQuery {
	q := search.SearchQuery{
		Query:     text,
		Specialty: f.specialty,
		Recency:   search.Recency(f.recency),
		Limit:     f.limit,
		Providers: search.ParseProviderIDs(stringutil.SplitCSV(f.providers)),
	}
	for _, level := range stringutil.SplitCSV(f.evidence) {
		q.EvidenceLevels = append(q.EvidenceLevels, search.EvidenceLevel(level))
	}
	for _, ct := range stringutil.SplitCSV(f.contentTypes) {
		q.ContentTypes = append(q.ContentTypes, search.ContentType(ct))
	}
	adv := search.AdvancedFilters{
		ContentTypes:      stringutil.SplitCSV(f.contentFilters),
		FileFormats:       stringutil.SplitCSV(f.formats),
		SourceAuthorities: stringutil.SplitCSV(f.authorities),
		PeerReviewedOnly:  f.peerReviewed,
		OpenAccessOnly:    f.openAccess,
	}
	if len(adv.ContentTypes) > 0 || len(adv.FileFormats) > 0 || len(adv.SourceAuthorities) > 0 || adv.PeerReviewedOnly || adv.OpenAccessOnly {
		q.AdvancedFilters = &adv
	}
	return q
}

func newSearchCmd(root *rootOptions, mode string) *cobra.Command {
	flags := &queryFlags{}
	use, short := "search <query>", "Run a sequential search"
	if mode == search.ModeParallel {
		use, short = "parallel <query>", "Query every enabled provider concurrently and merge the results"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch := root.orchestrator(ctx)
			q := flags.query(strings.Join(args, " "))
			var (
				resp *search.AggregatedSearchResponse
				err  error
			)
			if mode == search.ModeParallel {
				resp, err = orch.ParallelSearch(ctx, q)
			} else {
				resp, err = orch.Search(ctx, q)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	flags.register(cmd)
	return cmd
}

func newProvidersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured providers in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := search.NewRegistry(root.cfg.Providers()...)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENABLED\tPRIORITY\tTIMEOUT\tRETRIES\tWEIGHT\tENDPOINT")
			for _, p := range registry.All() {
				fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%s\t%d\t%.2f\t%s\n",
					p.ID, p.Name, p.Enabled, p.Priority, p.Timeout, p.RetryCount, p.Weight, p.Endpoint)
			}
			return w.Flush()
		},
	}
}
