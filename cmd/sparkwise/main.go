// Command sparkwise runs the battery, pool and solar PV engines from the
// command line.
//
// Inputs are read from a YAML or JSON file (or stdin) and the results are
// printed as text or JSON:
//
//	sparkwise battery -f bank.yaml
//	sparkwise pool -f pool.json -o json
//	sparkwise solarpv -f install.json --render certificate.pdf
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalidInputs) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sparkwise",
		Short:         "Electrical design calculators and solar PV certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("output", "o", outputText, "output format: text or json")

	rootCmd.AddCommand(batteryCmd())
	rootCmd.AddCommand(poolCmd())
	rootCmd.AddCommand(solarPVCmd())

	return rootCmd
}

func batteryCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "battery",
		Short: "Evaluate battery backup runtime or size a bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBattery(cmd, file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "inputs file (YAML or JSON, - for stdin)")
	return cmd
}

func poolCmd() *cobra.Command {
	var file string
	var validateOnly bool

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Design the electrical installation for a pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPool(cmd, file, validateOnly)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "inputs file (YAML or JSON, - for stdin)")
	cmd.Flags().BoolVar(&validateOnly, "validate", false, "only check the inputs")
	return cmd
}

func solarPVCmd() *cobra.Command {
	var file string
	var render string

	cmd := &cobra.Command{
		Use:   "solarpv",
		Short: "Format a solar PV installation record as a certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolarPV(cmd, file, render)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "installation record (YAML or JSON, - for stdin)")
	cmd.Flags().StringVar(&render, "render", "", "also render the certificate to this .pdf or .html file")
	return cmd
}
