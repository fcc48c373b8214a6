package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCmd builds the cobra command tree. The CLI surface itself is
// deliberately thin — it parses flags/args and hands off to the library
// packages — per spec.md §1's "command-line argument parsing... ordinary
// glue, not respecified."
func newRootCmd() *cobra.Command {
	var (
		noAnonymize    []string
		preservePrefix []string
		configFile     string
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "ipanon INPUT_FILE [HEX_KEY]",
		Short: "Prefix-preserving IP and MAC address anonymizer",
		Long: `ipanon anonymizes IPv4 and IPv6 addresses found in a text file using the
Crypto-PAn prefix-preserving construction, and redacts MAC-address
literals. Two addresses sharing a binary prefix anonymize to addresses
sharing the same-length anonymized prefix.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(configFile, noAnonymize, preservePrefix)
			if err != nil {
				return err
			}
			return runIPAnon(cmd, args, v, verbose)
		},
	}

	cmd.Flags().StringSliceVar(&noAnonymize, "no-anonymize", nil,
		"CIDR ranges to pass through unchanged (default: loopback + ::)")
	cmd.Flags().StringSliceVar(&preservePrefix, "preserve-prefix", nil,
		"CIDR ranges to anonymize only in their host bits")
	cmd.Flags().StringVar(&configFile, "config", "",
		"optional YAML/TOML file supplying no-anonymize/preserve-prefix lists")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level diagnostics")

	return cmd
}

// newViper binds the parsed flag values into a viper instance, loading
// configFile first (if given) so CLI flags can still override it.
func newViper(configFile string, noAnonymize, preservePrefix []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("IPANON")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if len(noAnonymize) > 0 {
		v.Set("no-anonymize", noAnonymize)
	}
	if len(preservePrefix) > 0 {
		v.Set("preserve-prefix", preservePrefix)
	}

	return v, nil
}
