package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justyntemme/sushi-core/pkg/config"
)

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-path]",
		Short: "Parse and validate a configuration file without running the engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("ok: %d track(s), sample rate %.0f, chunk size %d\n",
				len(doc.Tracks), doc.Audio.SampleRate, doc.Audio.ChunkSize)
			return nil
		},
	}
}
