package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adi-analytics/ticketdesk/internal/config"
	"github.com/adi-analytics/ticketdesk/internal/debug"
	"github.com/adi-analytics/ticketdesk/internal/ui"
)

var configCmd = &cobra.Command{
	Use:         "config",
	GroupID:     "setup",
	Short:       "Manage configuration settings",
	Annotations: noStore(),
	Long: `Manage configuration settings.

Settings are read from .ticketdesk/config.yaml (searched upward from the
current directory), then ~/.config/ticketdesk/config.yaml. Every key can be
overridden by an environment variable: TD_ plus the key upper-cased with
'.' and '-' replaced by '_' (db.host becomes TD_DB_HOST).

Examples:
  td config set db.backend dolt-embedded
  td config set routing.file .ticketdesk/routing.yaml
  td config get ui.listen
  td config list`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in .ticketdesk/config.yaml",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		key, value := args[0], args[1]
		if err := config.SetYamlConfig(key, value); err != nil {
			FatalError("setting config: %v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{"key": key, "value": value})
			return
		}
		debug.PrintNormal("Set %s = %s\n", key, displayValue(key, value))
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a configuration key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		if config.LookupKey(key) == nil {
			FatalErrorWithHint(fmt.Sprintf("unknown config key %q", key), "run 'td config list' to see every key")
		}
		value := configValue(key)
		if jsonOutput {
			outputJSON(map[string]string{"key": key, "value": value, "source": config.Source(key)})
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configuration key with its value and source",
	Run: func(cmd *cobra.Command, _ []string) {
		keys := config.KeyNames()
		if jsonOutput {
			out := make([]map[string]string, 0, len(keys))
			for _, k := range keys {
				out = append(out, map[string]string{
					"key":    k,
					"value":  displayValue(k, configValue(k)),
					"source": config.Source(k),
				})
			}
			outputJSON(out)
			return
		}
		w := cmd.OutOrStdout()
		if path := config.ConfigFileUsed(); path != "" {
			fmt.Fprintf(w, "%s\n\n", ui.RenderMuted("Config file: "+path))
		}
		for _, k := range keys {
			fmt.Fprintf(w, "%-28s %-30s %s\n", k, displayValue(k, configValue(k)), ui.RenderMuted(config.Source(k)))
		}
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}

func configValue(key string) string {
	if k := config.LookupKey(key); k != nil {
		if _, ok := k.Default.([]string); ok {
			return strings.Join(config.GetStringSlice(key), ",")
		}
	}
	return config.GetString(key)
}

// displayValue masks secrets.
func displayValue(key, value string) string {
	if k := config.LookupKey(key); k != nil && k.Secret && value != "" {
		return "********"
	}
	return value
}
