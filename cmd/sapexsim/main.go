// Command sapexsim runs the path-selection simulator (spec.md 6's
// CLI), built with cobra the way the corpus's scionproto-scion command
// surface is.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/martenwallewein/sapexf-simulation/internal/config"
	"github.com/martenwallewein/sapexf-simulation/report"
	"github.com/martenwallewein/sapexf-simulation/sim"
	"github.com/martenwallewein/sapexf-simulation/topology"
	"github.com/martenwallewein/sapexf-simulation/trace"
)

var (
	topologyPath  string
	trafficPath   string
	algorithmName string
	umccEnabled   bool
	warmupMs      float64
	tracePath     string
	seed          string
	deviceExecPath string
)

var rootCmd = &cobra.Command{
	Use:   "sapexsim",
	Short: "Discrete-event simulator for inter-domain path-selection algorithms",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a topology, run traffic against it, and report results",
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().StringVar(&topologyPath, "topology", "", "path to the topology file (required)")
	runCmd.Flags().StringVar(&trafficPath, "traffic", "", "path to the traffic file (required)")
	runCmd.Flags().StringVar(&algorithmName, "algorithm", "shortest", "path-selection algorithm: shortest or sapex")
	runCmd.Flags().BoolVar(&umccEnabled, "umcc", false, "enable UMCC shared-bottleneck detection (sapex only)")
	runCmd.Flags().Float64Var(&warmupMs, "warmup-ms", 2000, "warmup interval before traffic starts, in ms")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "optional path to write a full JSON/YAML event trace")
	runCmd.Flags().StringVar(&seed, "seed", "sapexsim", "RNG seed name for the probing task's host selection")
	runCmd.Flags().StringVar(&deviceExecPath, "device-exec", "", "optional per-router-model forwarding profile table")

	_ = runCmd.MarkFlagRequired("topology")
	_ = runCmd.MarkFlagRequired("traffic")

	rootCmd.AddCommand(runCmd)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	tm := trace.New(tracePath != "", true)

	profiles, err := loadProfiles(deviceExecPath)
	if err != nil {
		return reportAndReturn(err)
	}

	topo, err := config.LoadTopology(topologyPath, profiles)
	if err != nil {
		return reportAndReturn(err)
	}

	traffic, err := config.LoadTraffic(trafficPath, topo)
	if err != nil {
		return reportAndReturn(err)
	}

	result, err := sim.Run(sim.Config{
		Topo:      topo,
		Traffic:   traffic,
		Algorithm: algorithmName,
		UMCC:      umccEnabled,
		WarmupMs:  warmupMs,
		SeedName:  seed,
		Trace:     tm,
	})
	if err != nil {
		return reportAndReturn(err)
	}

	report.WriteSummary(os.Stdout, result)

	if tracePath != "" {
		if err := tm.WriteToFile(tracePath); err != nil {
			return reportAndReturn(fmt.Errorf("writing trace: %w", err))
		}
	}
	return nil
}

// loadProfiles returns the --device-exec table, or nil (topology.Build
// falls back to the Default profile for every model) if no file was
// given.
func loadProfiles(path string) (map[string]topology.ForwardingProfile, error) {
	if path == "" {
		return nil, nil
	}
	return config.LoadDeviceExec(path)
}

func reportAndReturn(err error) error {
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Fprintln(os.Stderr, cfgErr.Error())
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
