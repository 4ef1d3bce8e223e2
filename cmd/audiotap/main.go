package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.aimuz.me/audiotap/devices"
	"go.aimuz.me/audiotap/permissions"
)

var (
	version = "dev"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "audiotap",
	Short: "Capture system audio and microphone input",
	Long:  `audiotap records system audio or microphone input to WAV or Opus files and inspects the devices and permissions involved.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := devices.List()
		if err != nil {
			return fmt.Errorf("list devices: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDIRECTION\tRATE\tCHANNELS\tDEFAULT")
		for _, d := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%d\t%s\n",
				d.ID, d.Name, direction(d), d.SampleRate, d.Channels, mark(d.IsDefault))
		}
		return w.Flush()
	},
}

func direction(d devices.Device) string {
	switch {
	case d.IsInput && d.IsOutput:
		return "input+output"
	case d.IsInput:
		return "input"
	case d.IsOutput:
		return "output"
	default:
		return "none"
	}
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

var (
	requestPermission bool
	openSettings      bool
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Show capture permission status",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range []permissions.Capability{permissions.SystemAudio, permissions.Microphone} {
			state := permissions.Status(c)
			available := permissions.Available(c)
			fmt.Printf("%-14s %-11s (available: %v)\n", c, state, available)
		}

		if requestPermission {
			done := make(chan bool, 1)
			permissions.Request(permissions.Microphone, func(granted bool) {
				done <- granted
			})
			if <-done {
				fmt.Println("microphone permission granted")
			} else {
				fmt.Println("microphone permission not granted")
			}
		}

		if openSettings {
			if !permissions.OpenSystemSettings() {
				return fmt.Errorf("could not open system settings")
			}
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("audiotap %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	permissionsCmd.Flags().BoolVar(&requestPermission, "request", false, "prompt for microphone permission")
	permissionsCmd.Flags().BoolVar(&openSettings, "open-settings", false, "open the OS privacy settings")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(permissionsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
