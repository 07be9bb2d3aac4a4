package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/threadcore/indexer"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index FILE...",
		Short: "Index the lines of text files and run queries against them",
		Long: `index feeds every non-blank line of the given files to an indexer
worker as a document named FILE:LINE, then prints the documents matching
each --query. A query with several words matches documents containing all
of them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, err := cmd.Flags().GetStringArray("query")
			if err != nil {
				return err
			}
			return a.runIndex(cmd, args, queries)
		},
	}
	f := cmd.Flags()
	f.StringArrayP("query", "q", nil, "query to run after indexing (repeatable)")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, files, queries []string) error {
	x, err := indexer.New(indexer.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer x.Close()

	var g errgroup.Group
	for _, path := range files {
		g.Go(func() error { return indexFile(x, path) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := x.Sync(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "indexed %d documents, %d terms\n", x.Documents(), x.Terms())
	for _, q := range queries {
		ids := x.Search(q)
		fmt.Fprintf(out, "%q: %d match(es)\n", q, len(ids))
		for _, id := range ids {
			fmt.Fprintf(out, "  %s\n", id)
		}
	}
	return nil
}

func indexFile(x *indexer.Index, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := x.IndexDocument(indexer.DocID(fmt.Sprintf("%s:%d", path, n)), line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
