package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Read and write keys of config.toml. Keys use dot notation, so
"qdrant.url" is the url key of the [qdrant] table.

Common keys:
  store.backend          sqlite, qdrant or memory
  store.path             sqlite data directory
  qdrant.url             Qdrant REST address
  index.root             bundle directory
  search.limit           default number of results
  search.threshold       default similar search threshold
  duplicates.threshold   default duplicate threshold
  lemmatizer.language    russian or english`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func requireConfig() error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := requireConfig(); err != nil {
		return err
	}
	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("config key %q is not set", args[0])
	}
	cmd.Println(fmt.Sprint(val))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := requireConfig(); err != nil {
		return err
	}
	if err := configStore.Set(args[0], parseConfigValue(args[1])); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if err := requireConfig(); err != nil {
		return err
	}
	cmd.Println(configStore.Path())
	return nil
}

// parseConfigValue keeps numbers and booleans typed in the TOML file.
func parseConfigValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
