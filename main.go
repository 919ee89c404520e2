package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snakedqn/config"
)

func main() {
	root := &cobra.Command{
		Use:   "snakedqn",
		Short: "Deep Q-learning agent for grid snake",
	}
	root.AddCommand(trainCommand(), playCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when one is given and falls back to the
// built-in defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
