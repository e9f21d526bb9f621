//go:build linux

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pion/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thesyncim/vatrace"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve every intercepted entry point against a libva",
	Long: `Load libva (default libva.so.2, or --va-lib / VATRACE_VA_LIB) and resolve each
intercepted entry point the same way the preload library does, including the
required symbol versions. Exits with status 1 if any entry point fails.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("va-lib", "", "path or soname of the libva to check")
	viper.BindPFlag("va_lib", checkCmd.Flags().Lookup("va-lib"))
}

func runCheck(cmd *cobra.Command, args []string) error {
	lib := viper.GetString("va_lib")
	if lib == "" {
		lib = vatrace.VALibrary()
	}

	table, err := vatrace.OpenSymbols(lib)
	if err != nil {
		return err
	}
	defer table.Close()

	reports, failed := checkEntryPoints(vatrace.NewResolver(table, 0))

	if err := printReports(os.Stdout, lib, reports); err != nil {
		return err
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d entry points failed to resolve\n", failed, len(reports))
		return &ExitError{Code: 1}
	}
	return nil
}

// checkEntryPoints resolves the declared table with r and returns one
// report per entry plus the number of failures.
func checkEntryPoints(r vatrace.Resolver) ([]vatrace.EntryReport, int) {
	quiet := logging.NewDefaultLeveledLoggerForScope("vatrace", logging.LogLevelDisabled, io.Discard)
	reg := vatrace.NewRegistry(r, vatrace.EntryPoints(), vatrace.WithLogger(quiet))

	var failed int
	entries := reg.Entries()
	reports := make([]vatrace.EntryReport, 0, len(entries))
	for _, e := range entries {
		if e.State != vatrace.StateResolved {
			failed++
		}
		reports = append(reports, vatrace.NewEntryReport(e))
	}
	return reports, failed
}

type checkResult struct {
	Library     string                `json:"library" yaml:"library"`
	EntryPoints []vatrace.EntryReport `json:"entry_points" yaml:"entry_points"`
}

func printReports(w io.Writer, lib string, reports []vatrace.EntryReport) error {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		version := r.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, []string{r.Name, version, r.State, r.Error})
	}
	return render(w, outputFormat, checkResult{Library: lib, EntryPoints: reports},
		[]string{"Entry Point", "Version", "State", "Error"}, rows)
}
