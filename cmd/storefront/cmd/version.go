package cmd

import (
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Build information. Populated at build time via -ldflags.
var (
	Version   = "0.1.0"
	Commit    = "none"
	BuildDate = "unknown"
)

// apiPaths are the shop endpoints this client speaks.
var apiPaths = []string{
	"POST /api/members/login",
	"POST /api/members/signup",
	"GET /api/products",
	"GET /api/products/{id}",
	"POST /api/orders",
	"GET /api/orders/my",
}

var versionOutput string

type versionInfo struct {
	Version   string   `json:"version" yaml:"version"`
	Commit    string   `json:"commit" yaml:"commit"`
	BuildDate string   `json:"buildDate" yaml:"build_date"`
	GoVersion string   `json:"goVersion" yaml:"go_version"`
	Platform  string   `json:"platform" yaml:"platform"`
	API       []string `json:"api" yaml:"api"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the storefront client build and the shop API endpoints it uses.

Examples:
  storefront version
  storefront version -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(versionOutput); err != nil {
			return err
		}
		info := currentVersion()
		if versionOutput != formatTable {
			return writeStructured(cmd.OutOrStdout(), versionOutput, info)
		}
		return writeVersion(cmd.OutOrStdout(), info)
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", formatTable, "output format: table, json or yaml")
	rootCmd.AddCommand(versionCmd)
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		API:       apiPaths,
	}
}

func writeVersion(w io.Writer, info versionInfo) error {
	fmt.Fprintf(w, "storefront %s (%s, built %s)\n", info.Version, info.Commit, info.BuildDate)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  go\t%s %s\n", info.GoVersion, info.Platform)
	for i, p := range info.API {
		label := ""
		if i == 0 {
			label = "api"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", label, p)
	}
	return tw.Flush()
}
