// Package main is the arizor binary: an HTTP service that walks
// inventive problems through ARIZ step by step, plus maintenance
// subcommands for the knowledge fund, report export and API keys.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"arizor/internal/knowledge"
	"arizor/internal/services"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		dbPath string
		addr   string
	)

	cmd := &cobra.Command{
		Use:   "arizor",
		Short: "ARIZ-guided problem solving service",
		Long: `Arizor guides inventive problems through ARIZ, the stepwise
algorithm of TRIZ. It serves an HTTP API for creating problems, running
guided sessions in express, full or autopilot mode, streaming step
events and exporting markdown reports backed by the TRIZ knowledge
fund.

Running arizor without a subcommand starts the HTTP server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, dbPath)
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to the platform data directory)")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (defaults to ARIZOR_HTTP_ADDR or :8080)")

	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Load the TRIZ knowledge fund from JSON fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			skip, _ := cmd.Flags().GetBool("skip-embeddings")
			return runIngest(dbPath, dir, skip)
		},
	}
	ingest.Flags().String("dir", "data/fixtures", "Directory with the knowledge fixture files")
	ingest.Flags().Bool("skip-embeddings", false, "Load records without generating embeddings")
	cmd.AddCommand(ingest)

	report := &cobra.Command{
		Use:   "report",
		Short: "Export a session report as markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetUint("session")
			out, _ := cmd.Flags().GetString("out")
			archive, _ := cmd.Flags().GetBool("archive")
			return runReport(dbPath, sessionID, out, archive)
		},
	}
	report.Flags().Uint("session", 0, "Session id to report on")
	report.Flags().String("out", "", "Output file (defaults to <report dir>/session_<id>.md)")
	report.Flags().Bool("archive", false, "Also commit the report to the git archive")
	_ = report.MarkFlagRequired("session")
	cmd.AddCommand(report)

	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys in the OS keyring",
	}
	keys.AddCommand(&cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store an API key for anthropic, openai or gemini",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 2 {
				key = args[1]
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "API key for %s: ", args[0])
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return err
				}
				key = strings.TrimSpace(line)
			}
			if err := services.NewKeyringService().StoreApiKey(args[0], key); err != nil {
				return err
			}
			fmt.Printf("Stored %s key\n", args[0])
			return nil
		},
	})
	keys.AddCommand(&cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.NewKeyringService().DeleteApiKey(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s key\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(keys)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("arizor version %s\n", version)
		},
	})

	return cmd
}

func runServe(addr, dbPath string) error {
	app, err := newApp(dbPath)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr == "" {
		addr = app.cfg.HTTPAddr
	}
	return app.serve(ctx, addr)
}

func runIngest(dbPath, dir string, skipEmbeddings bool) error {
	app, err := newApp(dbPath)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var embedder knowledge.Embedder
	if !skipEmbeddings {
		emb, err := app.svc.Clients.EmbeddingClient(ctx)
		if err != nil {
			log.Printf("Embeddings disabled: %v", err)
		} else {
			embedder = emb
		}
	}

	loader := knowledge.NewLoader(app.fund, embedder)
	stats, err := loader.LoadAll(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d principles (%d pairs), %d effects, %d standards, %d definitions, %d rules, %d transformations, %d analog cases\n",
		stats.Principles, stats.Pairs, stats.Effects, stats.Standards, stats.Definitions, stats.Rules, stats.Transformations, stats.AnalogCases)

	return loader.GenerateEmbeddings(ctx)
}

func runReport(dbPath string, sessionID uint, out string, archive bool) error {
	if sessionID == 0 {
		return fmt.Errorf("--session must be a positive id")
	}
	app, err := newApp(dbPath)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	content, err := app.svc.Reports.BuildSessionReport(ctx, sessionID)
	if err != nil {
		return err
	}

	if out == "" {
		out = filepath.Join(app.cfg.ReportDir, fmt.Sprintf("session_%d.md", sessionID))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", out)

	if archive {
		if !app.svc.Archive.Enabled() {
			return fmt.Errorf("report archive is not configured, set ARIZOR_ARCHIVE_PATH")
		}
		hash, err := app.svc.Archive.ArchiveReport(sessionID, content)
		if err != nil {
			return err
		}
		fmt.Printf("Archived as commit %s\n", hash)
	}
	return nil
}
