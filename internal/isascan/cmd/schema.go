package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"isascan/internal/analysis"
)

// Output formats of the root command.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Config represents the options of a scan
type Config struct {
	Mode            analysis.Mode `json:"mode" jsonschema:"title=Mode,description=Report mode"`
	Format          string        `json:"format" jsonschema:"title=Format,description=Output format,enum=text,enum=json,enum=markdown,default=text"`
	Verbose         bool          `json:"verbose" jsonschema:"title=Verbose,description=Print the container format and code regions"`
	Quiet           bool          `json:"quiet" jsonschema:"title=Quiet,description=Print only the result"`
	Parallelism     int           `json:"parallelism" jsonschema:"title=Parallelism,description=Regions decoded at once; 0 means GOMAXPROCS,minimum=0"`
	NoDemangleCache bool          `json:"noDemangleCache,omitempty" jsonschema:"title=No Demangle Cache,description=Demangle every symbol lookup instead of caching names"`
	Debug           bool          `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	CPUProfile      string        `json:"cpuProfile,omitempty" jsonschema:"title=CPU Profile,description=Path for CPU profile output"`
	MemProfile      string        `json:"memProfile,omitempty" jsonschema:"title=Memory Profile,description=Path for heap profile output"`
}

var schemas = map[string]any{
	"config": &Config{},
	"report": &jsonReport{},
}

var schemaCmd = &cobra.Command{
	Use:       "schema [config|report]",
	Short:     "Generate JSON schema for the configuration or the report",
	Long:      "Generate JSON schema for the isascan configuration (default) or the JSON report",
	Hidden:    true,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"config", "report"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "config"
		if len(args) == 1 {
			name = args[0]
		}
		v, ok := schemas[name]
		if !ok {
			return fmt.Errorf("unknown schema %q (want config or report)", name)
		}
		reflector := new(jsonschema.Reflector)
		bts, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}
