package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thesyncim/vatrace"
)

var (
	cfgFile      string
	outputFormat string
)

// ExitError carries an exit status for main to return without printing
// anything further.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vatrace",
	Short: "Trace libva calls through an LD_PRELOAD interposer",
	Long: `vatrace runs programs with libvatrace.so preloaded so that every call to
the intercepted libva entry points is traced, and reports which entry points
can be resolved against a given libva.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vatrace/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".vatrace"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Same variable names the preload library reads.
	viper.BindEnv("lib", vatrace.EnvLibPath)
	viper.BindEnv("va_lib", vatrace.EnvVALibPath)
	viper.BindEnv("trace_output", vatrace.EnvOutput)
	viper.BindEnv("timestamps", vatrace.EnvTimestamps)
	viper.BindEnv("metrics_addr", vatrace.EnvMetricsAddr)
	viper.BindEnv("log_level", vatrace.EnvLogLevel)

	viper.SetDefault("trace_output", vatrace.OutputStderr)
	viper.SetDefault("log_level", "error")

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}
