package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/finclip/prospector-cli/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml with every setting at its default",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat("config.yaml"); err == nil && !initForce {
			return fmt.Errorf("config.yaml already exists (use --force to overwrite)")
		}

		out, err := yaml.Marshal(nestKeys(config.Defaults()))
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		if err := os.WriteFile("config.yaml", out, 0o644); err != nil {
			return fmt.Errorf("write config.yaml: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "wrote config.yaml")
		return nil
	},
}

// nestKeys converts flat dotted keys ("registry.path") into the nested map
// shape yaml expects.
func nestKeys(flat map[string]any) map[string]any {
	nested := make(map[string]any)
	for key, val := range flat {
		parts := strings.Split(key, ".")
		node := nested
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = val
	}
	return nested
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}
