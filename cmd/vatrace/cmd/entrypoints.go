package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/thesyncim/vatrace"
)

// entrypointsCmd represents the entrypoints command
var entrypointsCmd = &cobra.Command{
	Use:   "entrypoints",
	Short: "List the intercepted libva entry points",
	Long:  `Print every libva function libvatrace.so exports, with the symbol version it requires and its call signature.`,
	Args:  cobra.NoArgs,
	RunE:  runEntrypoints,
}

func init() {
	rootCmd.AddCommand(entrypointsCmd)
}

type entryPointInfo struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Signature string `json:"signature" yaml:"signature"`
}

func describeEntryPoints() []entryPointInfo {
	eps := vatrace.EntryPoints()
	out := make([]entryPointInfo, 0, len(eps))
	for _, ep := range eps {
		out = append(out, entryPointInfo{
			Name:      ep.Name,
			Version:   ep.Version,
			Signature: ep.Prototype(),
		})
	}
	return out
}

func runEntrypoints(cmd *cobra.Command, args []string) error {
	infos := describeEntryPoints()
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		version := info.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, []string{info.Name, version, info.Signature})
	}
	return render(os.Stdout, outputFormat, infos, []string{"Entry Point", "Version", "Signature"}, rows)
}
