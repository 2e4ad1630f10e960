package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloom-go/bloom/internal/config"
	"github.com/bloom-go/bloom/pkg/export"
)

func exportCmd(configDir *string) *cobra.Command {
	var (
		outDir string
		bucket string
		prefix string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the static pages to HTML files",
		Long: `Render every page without route parameters once and write it
as a complete HTML document.

Pages go to export.dir unless an S3 bucket is configured or given
with --bucket.

Examples:
  bloom export
  bloom export --out=public
  bloom export --bucket=my-site --prefix=v2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError("export takes no arguments, got %q", args)
			}
			p, err := loadProject(*configDir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if outDir != "" {
				p.cfg.Export.Dir = outDir
			}
			if bucket != "" {
				p.cfg.Export.S3.Bucket = bucket
			}
			if prefix != "" {
				p.cfg.Export.S3.Prefix = prefix
			}
			return runExport(cmd.Context(), cmd, p, pretty)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from bloom.yaml)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket to upload to")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix inside the bucket")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the generated HTML")

	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, p *project, pretty bool) error {
	store, err := openStore(ctx, p.cfg)
	if err != nil {
		return err
	}

	exporter := export.New(p.app, store,
		export.WithTitle(p.title()),
		export.WithLogger(p.logger),
		export.WithPretty(pretty),
	)
	result, err := exporter.Export(ctx)
	if err != nil {
		return err
	}

	for _, page := range result.Pages {
		info(cmd, "%-20s → %s", page.Pattern, page.Location)
	}
	success(cmd, "Exported %d pages in %s", len(result.Pages), result.Duration.Round(time.Millisecond))
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (export.Store, error) {
	if s3 := cfg.Export.S3; s3.Bucket != "" {
		return export.NewS3Store(ctx, export.S3Config{
			Bucket:   s3.Bucket,
			Prefix:   s3.Prefix,
			Region:   s3.Region,
			Endpoint: s3.Endpoint,
		})
	}
	return export.NewDiskStore(cfg.ExportDir())
}
