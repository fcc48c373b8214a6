package main

import (
	"encoding/hex"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/heistp/ipanon/internal/config"
	"github.com/heistp/ipanon/internal/logging"
	"github.com/heistp/ipanon/internal/policy"
	"github.com/heistp/ipanon/internal/processor"
)

// runIPAnon implements the CLI contract of spec §6:
//
//	ipanon INPUT_FILE [HEX_KEY]
func runIPAnon(cmd *cobra.Command, args []string, v *viper.Viper, verbose bool) error {
	inputFile := args[0]
	var hexKey string
	if len(args) == 2 {
		hexKey = args[1]
	}

	log := logging.New(os.Stderr, verbose)

	run, err := config.Load(hexKey, v)
	if err != nil {
		log.Error("configuration error", "error", err.Error())
		return err
	}
	if run.KeyWasGenerated {
		log.Info("generated random key; save it for reproducible results", "key", hex.EncodeToString(run.Key))
	}

	pol, err := policy.New(run.Key, run.NoAnonymize, run.PreservePrefix)
	if err != nil {
		log.Error("failed to construct engine", "error", err.Error())
		return err
	}

	in, err := os.Open(inputFile)
	if err != nil {
		log.Error("failed to open input file", "file", inputFile, "error", err.Error())
		return err
	}
	defer in.Close()

	fatal := false
	sum, err := processor.Run(in, os.Stdout, pol, func(c *policy.CollisionError) error {
		log.Warn("anonymized address collided with a reserved range",
			"original", c.Original, "anonymized", c.Anonymized, "reason", c.Reason)
		fatal = true
		return c
	})
	if err != nil {
		if fatal {
			log.Error("aborting: rerun with a different key", "error", err.Error())
		} else {
			log.Error("processing failed", "error", err.Error())
		}
		return err
	}

	log.Info("processed input",
		"lines", sum.Lines, "ipv6", sum.Stats.IPv6, "ipv4", sum.Stats.IPv4, "mac", sum.Stats.MAC)
	return nil
}
