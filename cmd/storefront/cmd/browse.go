package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/unikraft-shop/storefront/internal/domain/member"
	"github.com/unikraft-shop/storefront/internal/domain/navigation"
	"github.com/unikraft-shop/storefront/internal/port/inbound"
)

const browsePrompt = "> "

const browseHelp = `Commands:
  open <path>       go to a path, e.g. open /product/1 (a bare /path works too)
  back              previous screen
  home              the product listing
  order [count]     order the open product (default 1)
  orders            your orders
  login <id> <pw>   log in
  logout            log out
  signup <id> <pw> <pw-again> <name> <email>
                    create an account; quote values with spaces
  help              this text
  quit              leave
`

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive shell",
	Long: `Browse the shop interactively, starting at the product listing.

The session is watched while browsing: logging in or out from another
terminal updates the navbar here.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	return withStorefront(cmd, func(ctx context.Context, sf *storefront) error {
		sf.provider.StartWatch(ctx, sf.cfg.SessionWatchInterval())
		defer sf.provider.Stop()

		watchCtx, cancelWatch := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			sf.shell.WatchSession(watchCtx)
		}()
		defer func() {
			cancelWatch()
			wg.Wait()
		}()

		b := newBrowser(sf.shell)
		// Load errors are already shown as notices.
		_ = sf.shell.Open(ctx, navigation.PathHome)
		return b.run(ctx, cmd.InOrStdin())
	})
}

// browser reads shell commands and dispatches them to the storefront.
// Everything it prints goes through the storefront's screen writer, so the
// prompt never splits a navbar redrawn by the session watcher.
type browser struct {
	shell inbound.Storefront
	out   io.Writer
}

func newBrowser(shell inbound.Storefront) *browser {
	return &browser{shell: shell, out: shell.Output()}
}

// run reads commands until quit, EOF or ctx is done.
func (b *browser) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		fmt.Fprint(b.out, browsePrompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(b.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(b.out)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if quit := b.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

// exec runs one command line and reports whether the shell should end.
// Action errors are not returned: the shell has shown them as notices.
func (b *browser) exec(ctx context.Context, line string) bool {
	args, err := splitArgs(line)
	if err != nil {
		fmt.Fprintf(b.out, "%v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	name, rest := strings.ToLower(args[0]), args[1:]
	if strings.HasPrefix(name, "/") {
		_ = b.shell.Open(ctx, args[0])
		return false
	}

	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(b.out, browseHelp)
	case "open":
		if len(rest) != 1 {
			b.usage("open <path>")
			return false
		}
		_ = b.shell.Open(ctx, rest[0])
	case "back":
		_ = b.shell.Back(ctx)
	case "home":
		_ = b.shell.Open(ctx, navigation.PathHome)
	case "orders":
		_ = b.shell.Open(ctx, navigation.PathOrders)
	case "order":
		count := 1
		if len(rest) > 1 {
			b.usage("order [count]")
			return false
		}
		if len(rest) == 1 {
			n, err := strconv.Atoi(rest[0])
			if err != nil {
				b.usage("order [count]")
				return false
			}
			count = n
		}
		_ = b.shell.OrderCurrent(ctx, count)
	case "login":
		if len(rest) != 2 {
			b.usage("login <id> <password>")
			return false
		}
		_ = b.shell.Login(ctx, member.Credentials{LoginID: rest[0], Password: rest[1]})
	case "logout":
		_ = b.shell.Logout(ctx)
	case "signup":
		if len(rest) != 5 {
			b.usage("signup <id> <password> <password-again> <name> <email>")
			return false
		}
		_ = b.shell.Signup(ctx, member.SignupDraft{
			LoginID:       rest[0],
			Password:      rest[1],
			PasswordCheck: rest[2],
			Name:          rest[3],
			Email:         rest[4],
		})
	default:
		fmt.Fprintf(b.out, "unknown command %q, type help\n", args[0])
	}
	return false
}

func (b *browser) usage(text string) {
	fmt.Fprintf(b.out, "usage: %s\n", text)
}

// splitArgs splits a command line on spaces. Double quotes group words and
// a backslash escapes the next character inside them.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		escaped bool
		started bool
	)

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}

	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}
