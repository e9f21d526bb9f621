//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/thesyncim/vatrace"
)

var runExec bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] -- program [args...]",
	Short: "Run a program with libva calls traced",
	Long: `Run a program with libvatrace.so placed first in LD_PRELOAD, so its calls to
the intercepted libva entry points are traced before reaching libva.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	// Flags after the program name belong to the program.
	runCmd.Flags().SetInterspersed(false)

	runCmd.Flags().String("lib", "", "path to libvatrace.so (default: search "+vatrace.EnvLibPath+", build/, system dirs)")
	runCmd.Flags().String("trace-output", "", "trace destination: stderr, stdout, none or a file path")
	runCmd.Flags().Bool("timestamps", false, "prefix trace lines with time and sequence number")
	runCmd.Flags().String("metrics-addr", "", "serve /metrics and /entrypoints on this address from the traced process")
	runCmd.Flags().String("log-level", "", "preload log level: disable, error, warn, info, debug, trace")
	runCmd.Flags().BoolVar(&runExec, "exec", false, "replace vatrace with the program instead of running it as a child")

	viper.BindPFlag("lib", runCmd.Flags().Lookup("lib"))
	viper.BindPFlag("trace_output", runCmd.Flags().Lookup("trace-output"))
	viper.BindPFlag("timestamps", runCmd.Flags().Lookup("timestamps"))
	viper.BindPFlag("metrics_addr", runCmd.Flags().Lookup("metrics-addr"))
	viper.BindPFlag("log_level", runCmd.Flags().Lookup("log-level"))
}

func runRun(cmd *cobra.Command, args []string) error {
	lib := viper.GetString("lib")
	if lib == "" {
		found, err := vatrace.FindPreloadLibrary()
		if err != nil {
			return fmt.Errorf("%w (build it with: go build -buildmode=c-shared -o build/%s ./cmd/libvatrace)", err, vatrace.PreloadLibName)
		}
		lib = found
	}

	cfg := vatrace.Config{
		Output:      viper.GetString("trace_output"),
		Timestamps:  viper.GetBool("timestamps"),
		MetricsAddr: viper.GetString("metrics_addr"),
		LogLevel:    viper.GetString("log_level"),
	}
	if _, err := vatrace.ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	env := preloadEnv(os.Environ(), lib, cfg)

	path, err := exec.LookPath(args[0])
	if err != nil {
		return err
	}

	if runExec {
		return unix.Exec(path, args, env)
	}

	child := exec.Command(path, args[1:]...)
	child.Args[0] = args[0]
	child.Env = env
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitStatus(exitErr.ProcessState)}
		}
		return err
	}
	return nil
}

// exitStatus is the status a shell would report for a finished child: its
// exit code, or 128 plus the signal number when a signal killed it.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
