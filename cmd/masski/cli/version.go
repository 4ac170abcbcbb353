package cli

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/store"
)

type versionInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	Built     string   `json:"built"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Drivers   []string `json:"store_drivers"`
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Version:   versionString(),
				Commit:    commit,
				Built:     date,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
				Drivers:   []string{store.DriverSQLite, store.DriverPostgres, store.DriverMySQL, store.DriverMSSQL},
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Fprintf(out, "masski %s\n", info.Version)
			tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
			fmt.Fprintf(tw, "  commit:\t%s\n", info.Commit)
			fmt.Fprintf(tw, "  built:\t%s\n", info.Built)
			fmt.Fprintf(tw, "  go:\t%s\n", info.GoVersion)
			fmt.Fprintf(tw, "  platform:\t%s\n", info.Platform)
			fmt.Fprintf(tw, "  stores:\t%s\n", strings.Join(info.Drivers, ", "))
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	return cmd
}

// versionString returns appVersion with a "v" prefix, or "dev" for
// unversioned builds.
func versionString() string {
	switch {
	case appVersion == "" || appVersion == "dev":
		return "dev"
	case strings.HasPrefix(appVersion, "v"):
		return appVersion
	default:
		return "v" + appVersion
	}
}
