package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roxby/tubesearch"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/version"
)

func newBootstrapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the blacklist, searches and videos indexes when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			created, err := client.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(created) == 0 {
				fmt.Fprintln(w, "all indexes exist")
				return nil
			}
			for _, name := range created {
				fmt.Fprintf(w, "created %s\n", name)
			}
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		req  tubesearch.SearchRequest
		sort string
		hd   bool
	)

	cmd := &cobra.Command{
		Use:   "search [text...]",
		Short: "Search one tube's video catalogue",
		Long: `Search one tube's video catalogue and print the result envelope as JSON.
Non-English queries are translated first when translation is enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Text = strings.Join(args, " ")
			if sort != "" {
				req.Options.Sort = query.ParseSort(sort)
			}
			if hd {
				req.Filters.IsHD = &hd
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			res := client.Search(cmd.Context(), req)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			if !res.Success {
				return res.Err()
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Tube, "tube", "", "tube to search (required)")
	f.StringVar(&req.Lang, "lang", "", "query language; non-English queries are translated")
	f.BoolVar(&req.Record, "record", false, "count the query in the search statistics")
	f.IntVar(&req.Options.From, "from", 0, "offset of the first hit")
	f.IntVar(&req.Options.Size, "size", 0, "page size (default: search.default_size)")
	f.StringVar(&sort, "sort", "", "sort order: relevance, recent, rating, views, comments, favorites, id_asc, id_desc")
	f.BoolVar(&hd, "hd", false, "HD videos only")
	f.BoolVar(&req.Filters.PublishedOnly, "published", false, "exclude videos scheduled in the future")
	_ = cmd.MarkFlagRequired("tube")
	return cmd
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
