package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"geosite/internal/compiler"
	"geosite/internal/config"
	"geosite/internal/generator"
	"geosite/pkg/blocklist"
	"geosite/pkg/blocklist/filesource"
	"geosite/pkg/blocklist/httpsource"
	"geosite/pkg/metrics"

	"github.com/spf13/cobra"
)

// newSource picks a local file for file:// URLs and HTTP otherwise.
func newSource(cfg *config.Config) blocklist.Source {
	if src, ok := filesource.FromURL(cfg.Source.URL); ok {
		return src
	}

	return httpsource.New(&http.Client{}, httpsource.Options{
		URL:       cfg.Source.URL,
		Timeout:   cfg.Source.Timeout,
		UserAgent: cfg.Source.UserAgent,
	})
}

func newGenerator(cfg *config.Config, m *metrics.Pipeline) (*generator.Generator, error) {
	opts, err := generator.NewOptions(cfg)
	if err != nil {
		return nil, err
	}

	return generator.New(newSource(cfg), compiler.NewSingBox(cfg.Compiler.Binary, cfg.Compiler.Timeout), opts, m)
}

func generateCommand(cfg *config.Config) *cobra.Command {
	var (
		mode, outputDir, url string
		checkOnly            bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetches the list once and writes the JSON and compiled rule-sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("mode") {
				cfg.Output.Mode = mode
			}
			if flags.Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			if flags.Changed("url") {
				cfg.Source.URL = url
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if checkOnly {
				opts, err := generator.NewOptions(cfg)
				if err != nil {
					return err
				}
				_, err = generator.Check(ctx, opts)

				return err
			}

			gen, err := newGenerator(cfg, nil)
			if err != nil {
				return err
			}

			_, err = gen.Run(ctx)

			return err
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", `"always" rewrites and recompiles every run, "on-change" skips an unchanged list`)
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the JSON and srs rule-sets")
	cmd.Flags().StringVar(&url, "url", "", "Source list URL, file:// reads a local copy")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only validate the rule-sets already in the output directory")

	return cmd
}
