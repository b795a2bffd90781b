// Package version reports which sheetsense build is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/internal/output"
)

// Version is stamped by the release build with -ldflags "-X ...version.Version=v1.2.3".
var Version = "dev"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Current returns the build information, falling back to the module version and VCS
// revision recorded by the Go toolchain when no version was stamped.
func Current() Info {
	info := Info{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			info.Commit = s.Value[:7]
		}
	}
	return info
}

// NewCommand returns the version subcommand.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the sheetsense build",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := Current()
			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				return output.NewWriterTo(cmd.OutOrStdout(), output.FormatJSON).WriteJSON(info)
			}
			line := "sheetsense " + info.Version
			if info.Commit != "" {
				line += " (" + info.Commit + ")"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s, %s %s\n", line, info.GoVersion, info.Platform)
			return err
		},
	}
}
