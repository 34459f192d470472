package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/Andres337939/libros-front/internal/catalog"
	"github.com/Andres337939/libros-front/internal/model"
	"github.com/Andres337939/libros-front/internal/policy"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func validFormat(f string) bool {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return true
	}
	return false
}

// render writes v as json or yaml, or calls table for the table format.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case formatJSON:
		buf, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(buf))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// bookRow is a book as listed, with the actions the session may take.
type bookRow struct {
	model.Book `yaml:",inline"`
	Actions    []policy.Action `json:"actions" yaml:"actions"`
	Pending    bool            `json:"pending,omitempty" yaml:"pending,omitempty"`
}

type listing struct {
	Session model.Session  `json:"session" yaml:"session"`
	Books   []bookRow      `json:"books" yaml:"books"`
	Page    model.PageView `json:"page" yaml:"page"`
	Stats   model.Stats    `json:"stats" yaml:"stats"`
	Notices []model.Notice `json:"notices,omitempty" yaml:"notices,omitempty"`
}

func newListing(sess model.Session, v catalog.View) listing {
	pending := make(map[string]bool, len(v.Pending))
	for _, id := range v.Pending {
		pending[id] = true
	}
	l := listing{Session: sess, Page: v.Page, Stats: v.Stats, Notices: v.Notices, Books: make([]bookRow, 0, len(v.Books))}
	for _, b := range v.Books {
		l.Books = append(l.Books, bookRow{
			Book:    *b,
			Actions: policy.PermittedActions(sess, b).List(),
			Pending: pending[b.ID],
		})
	}
	return l
}

func renderListing(w io.Writer, format string, sess model.Session, v catalog.View) error {
	l := newListing(sess, v)
	return render(w, format, l, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tYEAR\tSTATUS\tRATING\tACTIONS")
		for _, row := range l.Books {
			status := statusLabel(&row.Book, sess)
			if row.Pending {
				status += " (pending)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%.1f\t%s\n",
				row.ID, truncate(row.Title, 40), truncate(row.Author, 24), row.Genre,
				row.Year, status, row.Rating, actionList(row.Actions))
		}
		tw.Flush()
		fmt.Fprintf(tw, "\nPage %d of %d, %s\n", l.Page.PageNumber, l.Page.TotalPages, statsLine(l.Stats))
		if !l.Page.ActiveFilter.IsZero() {
			fmt.Fprintf(tw, "Filter: %s (current page only)\n", l.Page.ActiveFilter)
		}
	})
}

func statsLine(s model.Stats) string {
	return fmt.Sprintf("%d books in total, %d shown, %d available, average rating %.1f",
		s.Total, s.Displayed, s.Available, s.AverageRating)
}

func renderBook(w io.Writer, format string, sess model.Session, b *model.Book) error {
	row := bookRow{Book: *b, Actions: policy.PermittedActions(sess, b).List()}
	return render(w, format, row, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ID:\t%s\n", b.ID)
		fmt.Fprintf(tw, "Title:\t%s\n", b.Title)
		fmt.Fprintf(tw, "Author:\t%s\n", b.Author)
		fmt.Fprintf(tw, "Genre:\t%s\n", b.Genre)
		fmt.Fprintf(tw, "Year:\t%d\n", b.Year)
		fmt.Fprintf(tw, "Pages:\t%d\n", b.Pages)
		fmt.Fprintf(tw, "Rating:\t%.1f\n", b.Rating)
		fmt.Fprintf(tw, "Status:\t%s\n", statusLabel(b, sess))
		if b.ReservedAt != nil {
			fmt.Fprintf(tw, "Reserved at:\t%s\n", b.ReservedAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(tw, "Image:\t%s\n", b.ImageURL)
		fmt.Fprintf(tw, "Actions:\t%s\n", actionList(row.Actions))
		fmt.Fprintf(tw, "\n%s\n", b.Description)
	})
}

func renderSession(w io.Writer, format string, sess model.Session) error {
	return render(w, format, sess, func(tw *tabwriter.Writer) {
		if !sess.Authenticated {
			fmt.Fprintln(tw, "Not signed in (guest).")
			return
		}
		fmt.Fprintf(tw, "User:\t%s\n", sess.Username)
		fmt.Fprintf(tw, "ID:\t%s\n", sess.UserID)
		fmt.Fprintf(tw, "Role:\t%s\n", sess.Role)
		if sess.ReauthRequired {
			fmt.Fprintln(tw, "Session:\texpired, sign in again")
		}
	})
}

func renderJobs(w io.Writer, format string, jobs model.JobList) error {
	type result struct {
		BookID    string `json:"book_id" yaml:"book_id"`
		Operation string `json:"operation" yaml:"operation"`
		Status    string `json:"status" yaml:"status"`
		Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	}
	results := make([]result, 0, len(jobs))
	for _, job := range jobs {
		r := result{BookID: job.BookID, Operation: job.Type, Status: job.Status}
		if job.Err != nil {
			r.Error = job.Err.Error()
		}
		results = append(results, r)
	}
	return render(w, format, results, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "BOOK\tOPERATION\tSTATUS\tERROR")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.BookID, r.Operation, r.Status, r.Error)
		}
	})
}

func renderNotices(w io.Writer, notices []model.Notice) {
	for _, n := range notices {
		fmt.Fprintf(w, "[%d] %s %s failed: %s\n", n.ID, n.Operation, n.BookID, n.Message)
	}
}

// statusLabel marks the reservations held by the session user.
func statusLabel(b *model.Book, sess model.Session) string {
	if sess.Authenticated && b.IsReservedBy(sess.UserID) {
		return "reserved by you"
	}
	return b.Status.String()
}

func actionList(actions []policy.Action) string {
	if len(actions) == 0 {
		return "-"
	}
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
