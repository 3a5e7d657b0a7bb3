package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/unikraft-shop/storefront/internal/adapter/outbound/state"
	"github.com/unikraft-shop/storefront/internal/config"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the stored session",
	Long: `Remove the session storage from disk.

For the file backend this removes the session file with its backup, lock
and temp files. For the sqlite backend it removes the database with its
WAL and shared-memory files. The memory backend keeps nothing on disk.

Unlike logout, reset works without a reachable shop and also clears a
storage file that can no longer be read.

Examples:
  # Interactive confirmation
  storefront reset

  # No prompt
  storefront reset --force`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	errOut := cmd.ErrOrStderr()

	existing := existingPaths(resetTargets(cfg))
	if len(existing) == 0 {
		fmt.Fprintln(errOut, "Nothing to reset, no session storage found.")
		return nil
	}

	fmt.Fprintln(errOut, "The following will be removed:")
	for _, path := range existing {
		fmt.Fprintf(errOut, "  - %s\n", path)
	}

	if !resetForce && !confirm(cmd.InOrStdin(), errOut) {
		fmt.Fprintln(errOut, "Aborted.")
		return nil
	}

	var failed int
	for _, path := range existing {
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(errOut, "  ERROR removing %s: %v\n", path, err)
			failed++
		} else {
			fmt.Fprintf(errOut, "  Removed %s\n", path)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be removed", failed)
	}

	fmt.Fprintln(errOut, "Reset complete. You are logged out.")
	return nil
}

// resetTargets lists the files a backend keeps on disk.
func resetTargets(cfg *config.Config) []string {
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return nil
	case config.BackendSQLite:
		p := cfg.Session.Path
		return []string{p, p + "-wal", p + "-shm"}
	default:
		fs := state.NewFileStorage(cfg.Session.Path, nil)
		return append([]string{fs.Path()}, fs.Companions()...)
	}
}

func existingPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func confirm(in io.Reader, out io.Writer) bool {
	p := newPrompter(in, out)
	answer, err := p.ask("\nProceed? [y/N]")
	if err != nil {
		return false
	}
	return answer == "y" || answer == "Y"
}
