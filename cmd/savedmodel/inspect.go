package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/savedmodel/savedmodel"
)

var (
	inspectJSON bool
	inspectYAML bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <model-dir>",
	Short: "Summarize an exported model directory",
	Long: `Reads the container and the variables checkpoint, verifies the
checkpoint integrity checksum, and prints signatures and variables.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := savedmodel.Inspect(args[0])
		if err != nil {
			return err
		}
		switch {
		case inspectJSON:
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		case inspectYAML:
			out, err := yaml.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
		default:
			printInfo(info)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON")
	inspectCmd.Flags().BoolVar(&inspectYAML, "yaml", false, "Output as YAML")
	inspectCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.AddCommand(inspectCmd)
}

func printInfo(info *savedmodel.Info) {
	fmt.Printf("schema version: %d\n", info.SchemaVersion)
	fmt.Printf("graph nodes:    %d\n", info.GraphNodes)
	fmt.Printf("functions:      %d\n", len(info.Functions))

	fmt.Printf("\nsignatures (%d):\n", len(info.Signatures))
	for _, sig := range info.Signatures {
		fmt.Printf("  %s (%s)\n", sig.Key, sig.MethodName)
		for _, in := range sig.Inputs {
			fmt.Printf("    input  %-12s %s %v  -> %s\n", in.Key, in.DType, in.Shape, in.Name)
		}
		for _, out := range sig.Outputs {
			fmt.Printf("    output %-12s %s %v  -> %s\n", out.Key, out.DType, out.Shape, out.Name)
		}
	}

	fmt.Printf("\nvariables (%d):\n", len(info.Variables))
	for _, v := range info.Variables {
		fmt.Printf("  %-20s %s %v\n", v.Key, v.DType, v.Shape)
	}
}
