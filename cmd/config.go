package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/tripwise/internal/config"
	"github.com/derickschaefer/tripwise/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tripwise configuration",
	Long:  `Read and write tripwise configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		tmpl := config.Template()
		if err := config.WriteFile(path, tmpl); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Edit it and set at least one provider key to get started.")
		fmt.Fprintln(cmd.OutOrStdout(), "  Flights: https://developers.amadeus.com  Trains: https://numerique.sncf.com/startup/api/  Buses: https://rapidapi.com")
		return nil
	},
}

var configGetShowSecrets bool

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Keys{
			Flights: globalFlags.FlightsKey,
			Trains:  globalFlags.TrainsKey,
			Buses:   globalFlags.BusesKey,
		})
		if err != nil {
			return err
		}

		flightsKey := config.Redacted(cfg.FlightsAPIKey)
		trainsKey := config.Redacted(cfg.TrainsAPIKey)
		busesKey := config.Redacted(cfg.BusesAPIKey)
		if configGetShowSecrets {
			flightsKey, trainsKey, busesKey = cfg.FlightsAPIKey, cfg.TrainsAPIKey, cfg.BusesAPIKey
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}

		format := cfg.Format
		if globalFlags.Format != "" {
			format = globalFlags.Format
		}

		switch format {
		case render.FormatJSON:
			type configOut struct {
				FlightsAPIKey string  `json:"flights_api_key"`
				TrainsAPIKey  string  `json:"trains_api_key"`
				BusesAPIKey   string  `json:"buses_api_key"`
				Format        string  `json:"default_format"`
				Timeout       string  `json:"timeout"`
				Rate          float64 `json:"rate"`
				MaxResults    int     `json:"max_results"`
				MaxCities     int     `json:"max_cities"`
				DBPath        string  `json:"db_path"`
				ConfigFile    string  `json:"config_file"`
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(configOut{
				FlightsAPIKey: flightsKey,
				TrainsAPIKey:  trainsKey,
				BusesAPIKey:   busesKey,
				Format:        cfg.Format,
				Timeout:       cfg.Timeout.String(),
				Rate:          cfg.Rate,
				MaxResults:    cfg.MaxResults,
				MaxCities:     cfg.MaxCities,
				DBPath:        cfg.DBPath,
				ConfigFile:    src,
			})
		default:
			rows := [][]string{
				{"flights_api_key", flightsKey},
				{"trains_api_key", trainsKey},
				{"buses_api_key", busesKey},
				{"default_format", cfg.Format},
				{"timeout", cfg.Timeout.String()},
				{"rate", fmt.Sprintf("%.1f searches/s", cfg.Rate)},
				{"max_results", fmt.Sprintf("%d", cfg.MaxResults)},
				{"max_cities", fmt.Sprintf("%d", cfg.MaxCities)},
				{"db_path", cfg.DBPath},
				{"config_file", src},
			}
			printKVTable(cmd.OutOrStdout(), rows)
			return nil
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		val := args[1]

		// Load existing file or start from template
		var f config.File
		existing, path, err := loadConfigFile()
		if err != nil {
			path = config.DefaultConfigFile
			f = config.Template()
		} else {
			f = *existing
		}

		switch key {
		case "flights_api_key":
			f.FlightsAPIKey = val
		case "trains_api_key":
			f.TrainsAPIKey = val
		case "buses_api_key":
			f.BusesAPIKey = val
		case "default_format", "format":
			f.DefaultFormat = val
		case "timeout":
			f.Timeout = val
		case "rate":
			var r float64
			if _, err := fmt.Sscanf(val, "%f", &r); err != nil {
				return fmt.Errorf("rate must be a number")
			}
			f.Rate = r
		case "max_results":
			var n int
			if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
				return fmt.Errorf("max_results must be an integer")
			}
			f.MaxResults = n
		case "max_cities":
			var n int
			if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
				return fmt.Errorf("max_cities must be an integer")
			}
			f.MaxCities = n
		case "db_path":
			f.DBPath = val
		default:
			return fmt.Errorf("unknown config key: %q\n\nValid keys: flights_api_key, trains_api_key, buses_api_key, default_format, timeout, rate, max_results, max_cities, db_path", key)
		}

		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configGetCmd.Flags().BoolVar(&configGetShowSecrets, "show-secrets", false, "show API keys in plain text")
}

// loadConfigFile reads config.json from cwd; used by configSetCmd.
func loadConfigFile() (*config.File, string, error) {
	path := config.DefaultConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", err
	}
	return &f, path, nil
}
