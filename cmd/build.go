package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgcorpus/internal/config"
	"github.com/AnyUserName/imgcorpus/internal/metrics"
	"github.com/AnyUserName/imgcorpus/internal/pipeline"
	"github.com/AnyUserName/imgcorpus/internal/profile"
	"github.com/AnyUserName/imgcorpus/internal/storage"
	"github.com/AnyUserName/imgcorpus/internal/transform"
)

const (
	defaultInputDir  = "."
	defaultOutputDir = "indir.corpus"
)

var (
	buildConfigFile  string
	buildProfile     string
	buildAspect      bool
	buildGray        bool
	buildBinary      bool
	buildRows        int
	buildColumns     int
	buildType        string
	buildQuality     int
	buildWorkers     int
	buildLocatorBase string
	buildMetricsFile string
)

var buildCmd = &cobra.Command{
	Use:   "build [indir] [outdir]",
	Short: "Transform every image under indir and write the corpus to outdir",
	Long: `Walks indir recursively (default "."), decodes every file it can, resizes
it to rows x columns (or to columns wide with --aspect), optionally converts it
to gray or black and white, and writes it to outdir (default "indir.corpus")
together with metadata.xml.

Files that cannot be decoded are skipped. Output names keep the source name;
--type replaces the extension.

outdir may also be s3://bucket/prefix or gs://bucket/prefix.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildConfigFile, "config", "", "YAML config file")
	f.StringVarP(&buildProfile, "profile", "p", "", "preset: "+strings.Join(profile.Names(), ", "))
	f.BoolVarP(&buildAspect, "aspect", "a", false, "keep aspect ratio, scale to --columns wide")
	f.BoolVarP(&buildGray, "gray", "g", false, "convert to grayscale")
	f.BoolVarP(&buildBinary, "binary", "b", false, "convert to black and white")
	f.IntVarP(&buildRows, "rows", "r", transform.DefaultRows, "output rows")
	f.IntVarP(&buildColumns, "columns", "c", transform.DefaultColumns, "output columns")
	f.StringVarP(&buildType, "type", "t", "", "output type: "+strings.Join(transform.OutputTypes, ", "))
	f.IntVarP(&buildQuality, "quality", "q", 0, "jpeg quality 1-100 (0 = encoder default)")
	f.IntVarP(&buildWorkers, "workers", "w", 1, "parallel workers")
	f.StringVar(&buildLocatorBase, "locator-base", "", "base URL of the source locator")
	f.StringVar(&buildMetricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	buildCmd.MarkFlagsMutuallyExclusive("gray", "binary")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	inputDir, outputDir := defaultInputDir, defaultOutputDir
	if len(args) > 0 {
		inputDir = args[0]
	}
	if len(args) > 1 {
		outputDir = args[1]
	}

	cfg, err := resolveBuildConfig(cmd)
	if err != nil {
		return err
	}

	runLog := log.WithField("run", uuid.NewString())
	runLog.WithFields(logrus.Fields{
		"input":   inputDir,
		"output":  outputDir,
		"profile": cfg.Profile,
		"rows":    cfg.Transform.Rows,
		"columns": cfg.Transform.Columns,
		"aspect":  cfg.Transform.KeepAspect,
		"color":   cfg.Transform.Color.String(),
		"type":    cfg.Transform.Type,
		"workers": cfg.Workers,
	}).Debug("resolved configuration")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	store, err := storage.Open(ctx, outputDir, cfg.S3)
	if err != nil {
		return fmt.Errorf("%w: output: %v", config.ErrInvalidOption, err)
	}
	defer store.Close()

	rec := metrics.New()
	p, err := pipeline.New(pipeline.Config{
		InputDir:    inputDir,
		Store:       store,
		Transform:   cfg.Transform,
		Quality:     cfg.Quality,
		Workers:     cfg.Workers,
		LocatorBase: cfg.LocatorBase,
		Metrics:     rec,
		Log:         runLog,
	})
	if err != nil {
		cmd.SilenceUsage = true
		return err
	}

	res, err := p.Run(ctx)
	if err != nil {
		if !errors.Is(err, pipeline.ErrDirectoryNotFound) {
			cmd.SilenceUsage = true
		}
		return fmt.Errorf("pipeline: %w", err)
	}
	cmd.SilenceUsage = true

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		runLog.WithField("path", cfg.MetricsFile).Debug("wrote metrics")
	}

	printBuildReport(res)
	return nil
}

// resolveBuildConfig layers explicitly set flags over config.Load.
func resolveBuildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(buildConfigFile, buildProfile)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("rows") {
		cfg.Transform.Rows = buildRows
	}
	if f.Changed("columns") {
		cfg.Transform.Columns = buildColumns
	}
	if f.Changed("aspect") {
		cfg.Transform.KeepAspect = buildAspect
	}
	switch {
	case f.Changed("gray") && buildGray:
		cfg.Transform.Color = transform.ColorGray
	case f.Changed("binary") && buildBinary:
		cfg.Transform.Color = transform.ColorBinary
	}
	if f.Changed("type") {
		cfg.Transform.Type = buildType
	}
	if f.Changed("quality") {
		cfg.Quality = buildQuality
	}
	if f.Changed("workers") {
		cfg.Workers = buildWorkers
	}
	if f.Changed("locator-base") {
		cfg.LocatorBase = buildLocatorBase
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = buildMetricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printBuildReport(res *pipeline.Result) {
	fmt.Println()
	fmt.Println("  imgcorpus build complete")
	fmt.Println()
	fmt.Printf("  Discovered:  %d files\n", res.Discovered)
	fmt.Printf("  Recorded:    %d images\n", res.Processed)
	if res.Skipped > 0 {
		fmt.Printf("  Skipped:     %d files (not decodable)\n", res.Skipped)
	}
	fmt.Printf("  Tags:        %d\n", res.Tags)
	fmt.Printf("  Written:     %s\n", formatBytes(res.BytesWritten))
	fmt.Printf("  Time:        %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Println()

	// Output type breakdown.
	types := map[string]int{}
	for _, r := range res.Records {
		types[strings.TrimPrefix(filepath.Ext(r.Output), ".")]++
	}
	if len(types) > 0 {
		var keys []string
		for k := range types {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("  Output types:")
		for _, k := range keys {
			name := k
			if name == "" {
				name = "(none)"
			}
			fmt.Printf("    %-6s  %4d files\n", name, types[k])
		}
		fmt.Println()
	}

	fmt.Printf("  Document:    %s\n", res.Document)
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
