package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/morph027/checkmk/internal/logger"
	"github.com/morph027/checkmk/pkg/accumulator"
	"github.com/morph027/checkmk/pkg/config"
	"github.com/morph027/checkmk/pkg/hostname"
	"github.com/morph027/checkmk/pkg/parser"
	"github.com/morph027/checkmk/pkg/persist"
	"github.com/morph027/checkmk/pkg/section"
	"github.com/morph027/checkmk/pkg/summarizer"
	"github.com/spf13/cobra"
)

var (
	parseInputPath string
	parseSections  []string
	parseAsJSON    bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags]",
	Short: "Parse agent output and report the check_mk verdict",
	Long: `parse reads raw checkmk agent output (from --input, or stdin when
omitted), decodes it into host sections, merges in any still-valid
persisted sections, and prints the version/policy verdict computed from
the check_mk section.`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseInputPath, "input", "", "Path to agent output (default: stdin)")
	parseCmd.Flags().StringSliceVar(&parseSections, "section", nil, "Restrict output to these sections (repeatable); default is all")
	parseCmd.Flags().BoolVar(&parseAsJSON, "json", false, "Print parsed sections as JSON instead of the check_mk verdict")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	raw, err := readInput(parseInputPath)
	if err != nil {
		return err
	}

	store, err := persist.Open(cfg.Parser.StorePath)
	if err != nil {
		return fmt.Errorf("opening persisted-section store: %w", err)
	}

	self := hostname.Sanitize(cfg.Parser.Host)
	p := parser.New(self, store, cfg.Parser.ToParserConfig())

	selection := parser.All()
	if len(parseSections) > 0 {
		names := make([]section.Name, 0, len(parseSections))
		for _, s := range parseSections {
			n, err := section.NewName(s)
			if err != nil {
				return fmt.Errorf("invalid --section %q: %w", s, err)
			}
			names = append(names, n)
		}
		selection = parser.Only(names...)
	}

	acc, err := p.Parse(raw, selection)
	if err != nil {
		return fmt.Errorf("parsing agent output: %w", err)
	}

	if parseAsJSON {
		return dumpSections(cmd.OutOrStdout(), acc)
	}

	checkMK, _ := section.NewName("check_mk")
	rows, _ := acc.Section(checkMK)

	status, summary, metrics, err := summarizer.Summarize(rows, cfg.Summarizer.ToSummarizerConfig())
	if err != nil {
		return fmt.Errorf("computing verdict: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatCheckLine(status, summary, metrics))
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func formatCheckLine(status summarizer.Status, summary string, metrics []summarizer.Metric) string {
	var perf []string
	for _, m := range metrics {
		perf = append(perf, fmt.Sprintf("%s=%g", m.Name, m.Value))
	}
	line := fmt.Sprintf("%s - %s", status, summary)
	if len(perf) > 0 {
		line += "|" + strings.Join(perf, " ")
	}
	return line
}

type sectionDump struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

func dumpSections(w io.Writer, acc *accumulator.HostSections) error {
	out := make([]sectionDump, 0, len(acc.SectionNames()))
	for _, name := range acc.SectionNames() {
		rows, _ := acc.Section(name)
		rawRows := make([][]string, len(rows))
		for i, r := range rows {
			rawRows[i] = []string(r)
		}
		out = append(out, sectionDump{Name: string(name), Rows: rawRows})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
