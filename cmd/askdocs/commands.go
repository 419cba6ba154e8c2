package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arneklein/askdocs/internal/answer"
	"github.com/arneklein/askdocs/internal/extract"
	"github.com/arneklein/askdocs/internal/index"
	"github.com/arneklein/askdocs/internal/ingest"
)

var version = "dev"

const noAnswerFallback = "I don't have enough information to answer that."

var rootCmd = &cobra.Command{
	Use:           "askdocs",
	Short:         "Multi-tenant question answering over documents and websites",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config.yaml")
	rootCmd.PersistentFlags().String("tenant", "", "tenant code")
	rootCmd.PersistentFlags().String("user", "", "user code within the tenant")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(versionCmd())
}

func requireTenant(cmd *cobra.Command) (tenant, user string, err error) {
	tenant, _ = cmd.Flags().GetString("tenant")
	user, _ = cmd.Flags().GetString("user")
	if strings.TrimSpace(tenant) == "" {
		return "", "", errors.New("--tenant is required")
	}
	return tenant, user, nil
}

// storedName builds the indexed file name: tenant, short user suffix, and
// a random tag so two uploads of files with the same name stay apart.
func storedName(tenant, user, original string) string {
	suffix := user
	if _, after, found := strings.Cut(user, "-"); found {
		suffix = after
	}
	if suffix == "" {
		suffix = "anon"
	}
	tag := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s%s", tenant, suffix, tag, filepath.Ext(original))
}

func ingestCmd() *cobra.Command {
	var keepName bool

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Extract, chunk, embed, and index local files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, user, err := requireTenant(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}

				sourceID := filepath.Base(path)
				if !keepName {
					sourceID = storedName(tenant, user, path)
				}

				res, err := a.pipeline.Ingest(ctx, ingest.Request{
					Artifact:   extract.Artifact{Data: data, Format: extract.Detect(path)},
					TenantCode: tenant,
					UserCode:   user,
					SourceID:   sourceID,
					SourceType: index.SourceTypeDocument,
				})
				if err != nil {
					if res.ChunkCount > 0 {
						fmt.Fprintf(cmd.ErrOrStderr(), "partial: %d chunks of %s were indexed before the failure\n", res.ChunkCount, path)
					}
					return fmt.Errorf("ingesting %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %s as %s (%d chunks)\n", path, sourceID, res.ChunkCount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepName, "keep-name", false, "index under the original file name instead of a generated one")
	return cmd
}

func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <url>...",
		Short: "Fetch web pages and index their content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, user, err := requireTenant(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, rawURL := range args {
				page, err := a.fetcher.FetchPage(ctx, rawURL)
				if err != nil {
					return err
				}

				res, err := a.pipeline.Ingest(ctx, ingest.Request{
					Artifact:   extract.Artifact{Data: page.HTML, Format: extract.FormatHTML, BaseURL: page.URL},
					TenantCode: tenant,
					UserCode:   user,
					SourceID:   rawURL,
					SourceType: index.SourceTypeWebsite,
				})
				if err != nil {
					return fmt.Errorf("ingesting %s: %w", rawURL, err)
				}

				title := res.Title
				if title == "" {
					title = rawURL
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %q (%d chunks)\n", title, res.ChunkCount)
			}
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	var (
		topK       int
		sources    string
		minScore   float32
		filterUser string
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the tenant's indexed content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The persistent --user flag attributes ingestion; retrieval
			// only narrows to one uploader when asked to explicitly.
			tenant, _, err := requireTenant(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.Answer(ctx, answer.Request{
				TenantCode: tenant,
				UserCode:   filterUser,
				Question:   args[0],
				TopK:       topK,
				SourceType: sources,
				MinScore:   minScore,
			})
			if errors.Is(err, answer.ErrNoRelevantResults) {
				fmt.Fprintln(cmd.OutOrStdout(), noAnswerFallback)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Answer)
			if len(res.Sources) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nSources:")
				for _, s := range res.Sources {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", s)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (0 for the configured default)")
	cmd.Flags().StringVar(&sources, "sources", answer.SourcesAll, "restrict retrieval: all, documents, or websites")
	cmd.Flags().Float32Var(&minScore, "min-score", 0, "minimum similarity score in [0, 1]")
	cmd.Flags().StringVar(&filterUser, "filter-user", "", "restrict retrieval to content uploaded by one user code")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the askdocs version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
