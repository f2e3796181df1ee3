package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgcorpus/internal/config"
)

var (
	version = "0.1.0"
	verbose bool
	envFile string

	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "imgcorpus",
	Short: "Build normalized image corpora with an XML metadata document",
	Long: `imgcorpus walks a directory tree of images, resizes and recolors each one
to a common geometry, and writes the results next to metadata.xml: one
numbered picture element per image carrying its source locator and every
embedded EXIF tag.

Outputs can go to a local directory, s3://bucket/prefix or gs://bucket/prefix.`,
	Version:       version,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
		return config.LoadDotEnv(envFile)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with CORPUS_* settings")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgcorpus %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}
