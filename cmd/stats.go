package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgcorpus/internal/corpusdoc"
	"github.com/AnyUserName/imgcorpus/internal/pipeline"
)

var statsTop int

var statsCmd = &cobra.Command{
	Use:   "stats <outdir|metadata.xml>",
	Short: "Display statistics for a built corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "number of most frequent tags to list")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	path, err := documentPath(args[0])
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	doc, err := corpusdoc.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	printStats(doc)
	return nil
}

// documentPath accepts either a corpus directory or the document itself.
func documentPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, corpusdoc.FileName)
	}
	return path, nil
}

type corpusStats struct {
	records    int
	tags       int
	untagged   int
	numericIDs int
	nameIDs    int
	tagCounts  map[string]int
}

func collectStats(doc *corpusdoc.Document) corpusStats {
	s := corpusStats{records: len(doc.Records), tagCounts: map[string]int{}}
	for _, r := range doc.Records {
		s.tags += len(r.Metadata)
		if len(r.Metadata) == 0 {
			s.untagged++
		}
		for _, e := range r.Metadata {
			s.tagCounts[e.Tag]++
		}
		if r.SourceID != "" && pipeline.SourceID(r.Name) == r.SourceID && r.SourceID != r.Name {
			s.numericIDs++
		} else {
			s.nameIDs++
		}
	}
	return s
}

func printStats(doc *corpusdoc.Document) {
	s := collectStats(doc)

	fmt.Println()
	fmt.Printf("  Records:          %d\n", s.records)
	fmt.Printf("  Metadata entries: %d\n", s.tags)
	if s.records > 0 {
		fmt.Printf("  Entries / record: %.1f\n", float64(s.tags)/float64(s.records))
	}
	fmt.Printf("  Without metadata: %d\n", s.untagged)
	fmt.Printf("  Source ids:       %d numeric, %d file name\n", s.numericIDs, s.nameIDs)
	fmt.Println()

	if len(s.tagCounts) == 0 {
		return
	}
	type tagCount struct {
		tag   string
		count int
	}
	var items []tagCount
	for tag, n := range s.tagCounts {
		items = append(items, tagCount{tag, n})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].tag < items[j].tag
	})
	n := min(len(items), statsTop)
	fmt.Printf("  Top %d tags (%d distinct):\n", n, len(items))
	for _, it := range items[:n] {
		fmt.Printf("    %-32s %6d\n", it.tag, it.count)
	}
	fmt.Println()
}
