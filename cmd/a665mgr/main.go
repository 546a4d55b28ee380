// Command a665mgr is a small external-collaborator shell around the
// decompiler's read-only medium probe: given a directory of candidate
// media-set root folders, it probes each one's first medium and prints a
// table of part number, member count, and probe result, without running a
// full decompile. It stands in for the out-of-scope Media Set Manager
// registry spec.md leaves pluggable.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bgrewell/arinc665-kit/internal/osbackend"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/decompiler"
	"github.com/bgrewell/arinc665-kit/pkg/logging"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "a665mgr",
	Short: "Probe a directory of candidate ARINC 665 media-set roots",
	Long: `a665mgr scans a directory for candidate media-set root folders and
runs the medium probe against each one's first medium, reporting part
number and media-set member count without performing a full decompile.`,
}

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Probe every candidate media-set root under <directory>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.a665mgr.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: info, debug, or trace")
	rootCmd.PersistentFlags().String("default-check-value", "Crc32", "default check-value type assumed for media sets that predate one")

	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("default-check-value", rootCmd.PersistentFlags().Lookup("default-check-value"))
	viper.SetEnvPrefix("A665MGR")
	viper.AutomaticEnv()

	rootCmd.AddCommand(scanCmd)
}

func parseCheckValueType(name string) checkvalue.Type {
	switch name {
	case "Crc8":
		return checkvalue.Crc8
	case "Crc16":
		return checkvalue.Crc16
	case "Crc32":
		return checkvalue.Crc32
	case "Crc64":
		return checkvalue.Crc64
	case "Sha1":
		return checkvalue.Sha1
	case "Sha256":
		return checkvalue.Sha256
	case "Sha512":
		return checkvalue.Sha512
	default:
		return checkvalue.NotUsed
	}
}

func logLevel() int {
	switch viper.GetString("log-level") {
	case "trace":
		return logging.LEVEL_TRACE
	case "debug":
		return logging.LEVEL_DEBUG
	default:
		return logging.LEVEL_INFO
	}
}

func runScan(root string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %q: %w", cfgFile, err)
		}
	}

	logger := logging.NewSimpleLogger(os.Stderr, logLevel(), true)
	defaultCheckValue := parseCheckValueType(viper.GetString("default-check-value"))
	logger.V(logging.LEVEL_DEBUG).Info("scanning candidates", "root", root, "default-check-value", defaultCheckValue.String())

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read %q: %w", root, err)
	}

	fmt.Printf("%-30s %-20s %-10s %s\n", "CANDIDATE", "PART NUMBER", "MEMBERS", "RESULT")
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := e.Name()
		b := osbackend.New(filepath.Join(root, candidate))
		result, err := decompiler.Probe(b, medium.First)
		if err != nil {
			fmt.Printf("%-30s %-20s %-10s error: %v\n", candidate, "-", "-", err)
			continue
		}
		if result == nil {
			fmt.Printf("%-30s %-20s %-10s no FILES.LUM found\n", candidate, "-", "-")
			continue
		}
		fmt.Printf("%-30s %-20s %-10d ok\n", candidate, result.PartNumber, result.TotalMedia)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
