package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/worker"
)

const shellHelp = `Commands:
  list [page]            load a page (default: reload the current one)
  next | prev            move between pages
  filter [category]      show one genre of the loaded page, "filter" alone lists
                         the categories, "filter clear" resets
  search <text>          search the loaded page, "search" alone resets
  show <id>              book details
  reserve <id>...        reserve books of the loaded page
  return <id>...         return books of the loaded page
  delete <id>...         delete books of the loaded page (administrators)
  stats                  page statistics
  notices                failed operations
  dismiss <n>|all        dismiss notices
  login <user> | logout | whoami
  help | exit`

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session that keeps the loaded page between actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			sh := &shell{app: a, prompt: newPrompter(a.in, a.errOut)}
			return sh.run(cmd.Context())
		},
	}
}

type shell struct {
	*app
	prompt *prompter
}

func (sh *shell) run(ctx context.Context) error {
	fmt.Fprintln(sh.out, "Libros shell. Type \"help\" for commands.")
	if err := sh.catalog.LoadPage(ctx, 1, model.BookQuery{}); err != nil {
		sh.report(err)
	} else {
		sh.list()
	}

	for ctx.Err() == nil {
		fmt.Fprint(sh.out, sh.promptText())
		line, err := sh.prompt.reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				fmt.Fprintln(sh.out)
				return nil
			}
			return errors.Wrap(err, "failed to read command")
		}
		if sh.exec(ctx, strings.TrimSpace(line)) {
			return nil
		}
	}
	return nil
}

func (sh *shell) promptText() string {
	sess := sh.current()
	if !sess.Authenticated {
		return "libros> "
	}
	if sess.ReauthRequired {
		return sess.Username + "(expired)@libros> "
	}
	return sess.Username + "@libros> "
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	var err error
	switch cmd {
	case "exit", "quit":
		return true
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "list", "ls":
		page := sh.catalog.Snapshot().Page.PageNumber
		if len(args) > 0 {
			if page, err = strconv.Atoi(args[0]); err != nil {
				err = errors.Errorf("invalid page %q", args[0])
				break
			}
		}
		if err = sh.catalog.LoadPage(ctx, page, sh.catalog.Query()); err == nil {
			sh.list()
		}
	case "next":
		if err = sh.catalog.NextPage(ctx); err == nil {
			sh.list()
		}
	case "prev":
		if err = sh.catalog.PrevPage(ctx); err == nil {
			sh.list()
		}
	case "refresh":
		if err = sh.catalog.Refresh(ctx); err == nil {
			sh.list()
		}
	case "filter":
		if rest == "" {
			fmt.Fprintf(sh.out, "Categories: %s\n", strings.Join(model.Categories, ", "))
			break
		}
		f := sh.catalog.Filter()
		f.Category = rest
		if strings.EqualFold(rest, "clear") {
			f = model.Filter{}
		}
		sh.catalog.ApplyFilter(f)
		sh.list()
	case "search":
		f := sh.catalog.Filter()
		f.Search = rest
		sh.catalog.ApplyFilter(f)
		sh.list()
	case "show":
		if len(args) != 1 {
			err = errors.New("usage: show <id>")
			break
		}
		var b *model.Book
		if b, err = sh.catalog.LoadBook(ctx, args[0]); err == nil {
			err = renderBook(sh.out, sh.output, sh.current(), b)
		}
	case "reserve", "return", "delete":
		if len(args) == 0 {
			err = errors.Errorf("usage: %s <id>...", cmd)
			break
		}
		err = sh.mutateAll(ctx, cmd, args)
	case "stats":
		fmt.Fprintln(sh.out, statsLine(sh.catalog.Snapshot().Stats))
	case "notices":
		notices := sh.catalog.Notices()
		if len(notices) == 0 {
			fmt.Fprintln(sh.out, "No notices.")
		}
		renderNotices(sh.out, notices)
	case "dismiss":
		err = sh.dismiss(args)
	case "login":
		err = sh.login(ctx, args)
	case "logout":
		if err = sh.session.Logout(ctx); err == nil {
			fmt.Fprintln(sh.out, "Signed out.")
			sh.list()
		}
	case "whoami":
		err = renderSession(sh.out, sh.output, sh.current())
	default:
		err = errors.Errorf("unknown command %q, type \"help\"", cmd)
	}

	if err != nil {
		sh.report(err)
	}
	return false
}

// mutateAll runs op on books of the loaded page concurrently. Repeating an
// id is rejected by the synchronizer while the first one is in flight.
func (sh *shell) mutateAll(ctx context.Context, op string, ids []string) error {
	jobs := make([]model.Job, 0, len(ids))
	for i, id := range ids {
		jobs = append(jobs, model.Job{
			ID:     i + 1,
			BookID: id,
			Type:   op,
			Run: func(ctx context.Context) error {
				return sh.mutate(ctx, op, id)
			},
		})
	}
	done := worker.RunAll(ctx, sh.opts.WorkerPoolSize, jobs)
	for _, job := range done {
		if job.Err != nil {
			sh.report(errors.Wrapf(job.Err, "%s %s", op, job.BookID))
		}
	}
	sh.list()
	return nil
}

func (sh *shell) dismiss(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: dismiss <n>|all")
	}
	if args[0] == "all" {
		for _, n := range sh.catalog.Notices() {
			sh.catalog.Dismiss(n.ID)
		}
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.Errorf("invalid notice %q", args[0])
	}
	if !sh.catalog.Dismiss(id) {
		return errors.Errorf("no notice %d", id)
	}
	return nil
}

func (sh *shell) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: login <user>")
	}
	password, err := sh.prompt.secret("Password: ")
	if err != nil {
		return err
	}
	user, err := sh.session.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Signed in as %s (%s).\n", user.Username, user.Role)
	sh.list()
	return nil
}

func (sh *shell) list() {
	if err := renderListing(sh.out, sh.output, sh.current(), sh.catalog.Snapshot()); err != nil {
		sh.report(err)
	}
}

func (sh *shell) report(err error) {
	fmt.Fprintf(sh.errOut, "error: %v\n", err)
	sh.explain(err)
}
