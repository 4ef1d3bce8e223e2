package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.aimuz.me/audiotap/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved capture profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSOURCE\tRATE\tCHUNK\tSTEREO\tENCODE\tACTIVE")
		for _, p := range cfg.Profiles {
			fmt.Fprintf(w, "%s\t%s\t%.0f\t%dms\t%v\t%s\t%s\n",
				p.Name, p.Source, p.SampleRate, p.ChunkDurationMs,
				p.Stereo, p.Encode, mark(p.Name == cfg.ActiveProfile))
		}
		return w.Flush()
	},
}

var addProfileFlags config.Profile

var profileAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		addProfileFlags.Name = args[0]
		if err := cfg.AddProfile(addProfileFlags); err != nil {
			return err
		}
		fmt.Printf("added profile %q\n", args[0])
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := cfg.RemoveProfile(args[0]); err != nil {
			return err
		}
		fmt.Printf("removed profile %q\n", args[0])
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the active profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if _, ok := cfg.Profile(args[0]); !ok {
			return fmt.Errorf("profile not found: %s", args[0])
		}
		cfg.ActiveProfile = args[0]
		return cfg.Save()
	},
}

func init() {
	f := profileAddCmd.Flags()
	f.StringVar(&addProfileFlags.Source, "source", "system", `capture source: "system" or "microphone"`)
	f.Float64Var(&addProfileFlags.SampleRate, "sample-rate", 0, "sample rate in Hz (0 uses the device rate)")
	f.IntVar(&addProfileFlags.ChunkDurationMs, "chunk", 0, "chunk duration in milliseconds")
	f.BoolVar(&addProfileFlags.Stereo, "stereo", false, "capture two channels")
	f.StringVar(&addProfileFlags.DeviceID, "device", "", "microphone device ID")
	f.Float64Var(&addProfileFlags.Gain, "gain", 0, "microphone gain, 0.0 to 1.0")
	f.StringVar(&addProfileFlags.Encode, "encode", "", `output encoding: "wav" or "opus"`)

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileUseCmd)
}
