package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgcorpus/internal/corpusdoc"
	"github.com/AnyUserName/imgcorpus/internal/hasher"
)

var validateCmd = &cobra.Command{
	Use:   "validate <outdir|metadata.xml>",
	Short: "Validate a corpus document and check referenced files",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := documentPath(args[0])
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	doc, err := corpusdoc.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	errs := validateDocument(doc, filepath.Dir(path))
	if len(errs) == 0 {
		fmt.Println("  ✓ Document is valid")
		fmt.Printf("  ✓ %d records, all files present\n", len(doc.Records))
		return nil
	}

	fmt.Printf("  ✗ Document has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateDocument(doc *corpusdoc.Document, baseDir string) []string {
	var errs []string

	for i, r := range doc.Records {
		if r.Index != i+1 {
			errs = append(errs, fmt.Sprintf("record %d: index %d out of sequence", i+1, r.Index))
		}
		if r.Name == "" {
			errs = append(errs, fmt.Sprintf("record %d: missing name", r.Index))
		}
		if r.SourceID == "" {
			errs = append(errs, fmt.Sprintf("record %d: missing source locator", r.Index))
		}

		// Documents written before outputs were recorded carry only the name.
		out := r.Output
		if out == "" {
			out = r.Name
		}

		sum, err := hasher.ChecksumFile(filepath.Join(baseDir, filepath.FromSlash(out)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("record %d: file not found: %s", r.Index, out))
			continue
		}
		// A later record with the same output name overwrote this file.
		if r.Checksum != "" && r.Checksum != sum {
			if !writtenLater(doc.Records[i+1:], out) {
				errs = append(errs, fmt.Sprintf("record %d: checksum mismatch for %s: document=%s, disk=%s",
					r.Index, out, r.Checksum, sum))
			}
		}
	}

	return errs
}

func writtenLater(rest []corpusdoc.Record, out string) bool {
	for _, r := range rest {
		if r.Output == out || (r.Output == "" && r.Name == out) {
			return true
		}
	}
	return false
}
