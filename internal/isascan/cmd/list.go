package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"isascan/internal/isa"
	"isascan/internal/isascan/styles"
	"isascan/internal/ui/colorize"
)

type featureInfo struct {
	Name        isa.Feature `json:"name"`
	Description string      `json:"description"`
	Level       int         `json:"level,omitempty"`
}

func init() {
	listCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

var listCmd = &cobra.Command{
	Use:     "list [feature...]",
	Aliases: []string{"ls"},
	Short:   "List the instruction-set extensions isascan recognizes",
	Example: `
# Every extension with its psABI level
isascan list

# Only the named extensions, as JSON
isascan list -j avx2 avx512bw
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := featureInfos(args)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		w := cmd.OutOrStdout()
		if asJSON {
			return listJSON(w, infos)
		}
		listText(w, infos, isTerminal(w) && colorize.Enabled())
		return nil
	},
}

// featureInfos describes the named features, or all of them when names is
// empty.
func featureInfos(names []string) ([]featureInfo, error) {
	fs := isa.All()
	if len(names) > 0 {
		fs = fs[:0:0]
		for _, name := range names {
			f, ok := isa.ParseFeature(name)
			if !ok {
				return nil, fmt.Errorf("unknown feature %q", name)
			}
			fs = append(fs, f)
		}
	}
	out := make([]featureInfo, len(fs))
	for i, f := range fs {
		out[i] = featureInfo{Name: f, Description: f.Description(), Level: f.Level()}
	}
	return out, nil
}

func listJSON(w io.Writer, infos []featureInfo) error {
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func listText(w io.Writer, infos []featureInfo, color bool) {
	st := styles.New(color)
	for _, fi := range infos {
		level := "-"
		if fi.Level > 0 {
			level = isa.LevelName(fi.Level)
		}
		fmt.Fprintf(w, "%s %-44s %s\n",
			st.Feature.Render(fmt.Sprintf("%-17s", fi.Name)),
			fi.Description,
			st.Dim.Render(level),
		)
	}
}
