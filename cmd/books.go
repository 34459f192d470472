package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Andres337939/libros-front/internal/catalog"
	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/worker"
)

type listFlags struct {
	page     int
	limit    int
	author   string
	status   string
	sort     string
	category string
	search   string
}

func (f *listFlags) query() (model.BookQuery, error) {
	q := model.BookQuery{Limit: f.limit, Author: strings.TrimSpace(f.author), Sort: f.sort}
	if f.status != "" {
		status, err := model.ParseStatus(f.status)
		if err != nil {
			return q, err
		}
		q.Status = status
	}
	return q, nil
}

func newBooksCmd(a *app) *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List one page of the catalog",
		Example: `  # First page, ten books
  libros books

  # Available books by an author, as json
  libros books --author borges --status available -o json

  # Narrow the loaded page to a category
  libros books --category Ciencia`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			q, err := flags.query()
			if err != nil {
				return err
			}
			if err := a.catalog.LoadPage(cmd.Context(), flags.page, q); err != nil {
				return a.explain(err)
			}
			a.catalog.ApplyFilter(model.Filter{Category: flags.category, Search: flags.search})
			return renderListing(a.out, a.output, a.current(), a.catalog.Snapshot())
		},
	}

	cmd.Flags().IntVar(&flags.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Books per page, defaults to page_size")
	cmd.Flags().StringVar(&flags.author, "author", "", "Server side author filter")
	cmd.Flags().StringVar(&flags.status, "status", "", "Server side status filter: available, reserved or borrowed")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "Sort key, prefix with - for descending")
	cmd.Flags().StringVar(&flags.category, "category", "", "Show only this genre of the loaded page")
	cmd.Flags().StringVar(&flags.search, "search", "", "Search title, author, genre and description of the loaded page")
	return cmd
}

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Show and manage single books",
	}
	cmd.AddCommand(
		newBookShowCmd(a),
		newBookCreateCmd(a),
		newBookUpdateCmd(a),
		newBookDeleteCmd(a),
	)
	return cmd
}

func newBookShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the details of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			b, err := a.catalog.LoadBook(cmd.Context(), args[0])
			if err != nil {
				return a.explain(err)
			}
			return renderBook(a.out, a.output, a.current(), b)
		},
	}
}

// bindPayloadFlags registers the book form fields on fs.
func bindPayloadFlags(fs *pflag.FlagSet, p *model.BookPayload, status *string) {
	fs.StringVar(&p.Title, "title", "", "Title")
	fs.StringVar(&p.Author, "author", "", "Author")
	fs.IntVar(&p.Year, "year", 0, "Publication year")
	fs.IntVar(&p.Pages, "pages", 0, "Number of pages")
	fs.StringVar(&p.Genre, "genre", "", "Genre")
	fs.StringVar(&p.ImageURL, "image", "", "Cover image URL")
	fs.StringVar(&p.Description, "description", "", "Description")
	fs.Float64Var(&p.Rating, "rating", 0, "Rating from 0 to 5")
	fs.StringVar(status, "status", "", "Status: available or borrowed")
}

func newBookCreateCmd(a *app) *cobra.Command {
	var (
		payload model.BookPayload
		status  string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Add a book to the catalog (administrators)",
		Example: `  libros book create --title "Ficciones" --author "Jorge Luis Borges" --year 1944 --pages 224 --genre Ficción`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			if status != "" {
				s, err := model.ParseStatus(status)
				if err != nil {
					return err
				}
				payload.Status = s
			}
			b, err := a.catalog.Create(cmd.Context(), a.current(), &payload)
			if err != nil {
				return a.explain(err)
			}
			return renderBook(a.out, a.output, a.current(), b)
		},
	}

	bindPayloadFlags(cmd.Flags(), &payload, &status)
	return cmd
}

func newBookUpdateCmd(a *app) *cobra.Command {
	var (
		changes model.BookPayload
		status  string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a book (administrators)",
		Long:  "Edit a book. Only the flags given are changed, the rest of the form keeps the current values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			id := args[0]
			if err := a.locate(cmd.Context(), id); err != nil {
				return a.explain(err)
			}
			current, _ := a.catalog.Book(id)
			payload := model.PayloadFromBook(current)
			if err := mergeChangedFlags(cmd.Flags(), payload, &changes, status); err != nil {
				return err
			}

			b, err := a.catalog.Update(cmd.Context(), a.current(), id, payload)
			if err != nil {
				return a.explain(err)
			}
			return renderBook(a.out, a.output, a.current(), b)
		},
	}

	bindPayloadFlags(cmd.Flags(), &changes, &status)
	return cmd
}

// mergeChangedFlags copies the fields whose flag was set from changes into p.
func mergeChangedFlags(fs *pflag.FlagSet, p, changes *model.BookPayload, status string) error {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "title":
			p.Title = changes.Title
		case "author":
			p.Author = changes.Author
		case "year":
			p.Year = changes.Year
		case "pages":
			p.Pages = changes.Pages
		case "genre":
			p.Genre = changes.Genre
		case "image":
			p.ImageURL = changes.ImageURL
		case "description":
			p.Description = changes.Description
		case "rating":
			p.Rating = changes.Rating
		}
	})
	if fs.Changed("status") {
		s, err := model.ParseStatus(status)
		if err != nil {
			return err
		}
		p.Status = s
	}
	return nil
}

func newBookDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Remove books from the catalog (administrators)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), catalog.OpDelete, args)
		},
	}
}

func newReserveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve <id>...",
		Short: "Reserve available books",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), catalog.OpReserve, args)
		},
	}
}

func newReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <id>...",
		Short: "Return reserved books",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), catalog.OpReturn, args)
		},
	}
}

// mutate runs op for one loaded book.
func (a *app) mutate(ctx context.Context, op, id string) error {
	sess := a.current()
	var err error
	switch op {
	case catalog.OpReserve:
		_, err = a.catalog.Reserve(ctx, sess, id)
	case catalog.OpReturn:
		_, err = a.catalog.Return(ctx, sess, id)
	case catalog.OpDelete:
		err = a.catalog.Delete(ctx, sess, id)
	default:
		err = errors.Errorf("unknown operation %q", op)
	}
	return err
}

// runBatch applies op to every id. Pages are walked in order and the ids
// found on each page run concurrently on the worker pool.
func (a *app) runBatch(ctx context.Context, op string, ids []string) error {
	if err := a.connect(ctx); err != nil {
		return err
	}

	var (
		done   model.JobList
		nextID int
	)
	missing, err := a.walkPages(ctx, ids, func(found []string) {
		jobs := make([]model.Job, 0, len(found))
		for _, id := range found {
			nextID++
			jobs = append(jobs, model.Job{
				ID:     nextID,
				BookID: id,
				Type:   op,
				Run: func(ctx context.Context) error {
					return a.mutate(ctx, op, id)
				},
			})
		}
		done = append(done, worker.RunAll(ctx, a.opts.WorkerPoolSize, jobs)...)
	})
	if err != nil {
		return a.explain(err)
	}
	for _, id := range missing {
		nextID++
		done = append(done, model.Job{ID: nextID, BookID: id, Type: op, Status: model.JobStatusFailed, Err: model.ErrNotLoaded})
	}

	if err := renderJobs(a.out, a.output, done); err != nil {
		return err
	}
	failed := done.Failed()
	if len(failed) == 0 {
		return nil
	}
	return errors.Wrapf(a.explain(failed[0].Err), "%d of %d operations failed", len(failed), len(done))
}

// locate loads the first page holding id.
func (a *app) locate(ctx context.Context, id string) error {
	missing, err := a.walkPages(ctx, []string{id}, func([]string) {})
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &model.Error{Kind: model.KindServer, Status: 404, Message: fmt.Sprintf("book %s not found", id)}
	}
	return nil
}

// walkPages loads the catalog page by page and calls fn with the ids of
// ids found on each page, until all are found or the pages run out. It
// returns the ids never found.
func (a *app) walkPages(ctx context.Context, ids []string, fn func(found []string)) ([]string, error) {
	left := make(map[string]bool, len(ids))
	for _, id := range ids {
		left[id] = true
	}
	q := a.catalog.Query()
	for page := 1; len(left) > 0; page++ {
		if err := a.catalog.LoadPage(ctx, page, q); err != nil {
			return nil, err
		}
		var found []string
		for _, id := range ids {
			if !left[id] {
				continue
			}
			if _, ok := a.catalog.Book(id); ok {
				found = append(found, id)
				delete(left, id)
			}
		}
		if len(found) > 0 {
			fn(found)
		}
		if !a.catalog.Snapshot().Page.HasNext() {
			break
		}
	}

	var missing []string
	for _, id := range ids {
		if left[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
