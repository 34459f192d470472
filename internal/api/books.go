package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Andres337939/libros-front/internal/model"
)

const defaultSort = "createdAt"

// ListBooks fetches one page of the catalog.
func (c *Client) ListBooks(ctx context.Context, q model.BookQuery) (*model.BookPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Sort == "" {
		q.Sort = defaultSort
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("sort", q.Sort)
	if q.Author != "" {
		query.Set("author", q.Author)
	}
	if w := q.Status.Wire(); w != "" {
		query.Set("status", w)
	}

	var page wirePage
	if err := c.do(ctx, http.MethodGet, "/books", query, "", nil, &page); err != nil {
		return nil, err
	}

	out := &model.BookPage{
		Books: make([]*model.Book, 0, len(page.Data)),
		Page:  page.Page,
		Total: page.Total,
		Pages: page.Pages,
	}
	for _, wb := range page.Data {
		if wb == nil {
			continue
		}
		out.Books = append(out.Books, wb.toModel())
	}
	if out.Page < 1 {
		out.Page = q.Page
	}
	if out.Pages < 1 {
		out.Pages = 1
	}
	return out, nil
}

func (c *Client) GetBook(ctx context.Context, id string) (*model.Book, error) {
	var wb wireBook
	if err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(id), nil, "", nil, &wb); err != nil {
		return nil, err
	}
	return wb.toModel(), nil
}

func (c *Client) CreateBook(ctx context.Context, payload *model.BookPayload, token string) (*model.Book, error) {
	var wb wireBook
	if err := c.do(ctx, http.MethodPost, "/books", nil, token, payloadToWire(payload), &wb); err != nil {
		return nil, err
	}
	return wb.toModel(), nil
}

func (c *Client) UpdateBook(ctx context.Context, id string, payload *model.BookPayload, token string) (*model.Book, error) {
	var wb wireBook
	if err := c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(id), nil, token, payloadToWire(payload), &wb); err != nil {
		return nil, err
	}
	return wb.toModel(), nil
}

func (c *Client) DeleteBook(ctx context.Context, id string, token string) error {
	return c.do(ctx, http.MethodDelete, "/books/"+url.PathEscape(id), nil, token, nil, nil)
}

// ReserveBook sends {status: "reservado", id_usuario: userID}.
func (c *Client) ReserveBook(ctx context.Context, id, token, userID string) (*model.Book, error) {
	body := &statusChange{Status: model.WireStatusReserved, UserID: model.StringPtr(userID)}
	var wb wireBook
	if err := c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(id), nil, token, body, &wb); err != nil {
		return nil, err
	}
	return wb.toModel(), nil
}

// ReturnBook sends {status: "disponible", id_usuario: null}.
func (c *Client) ReturnBook(ctx context.Context, id, token string) (*model.Book, error) {
	body := &statusChange{Status: model.WireStatusAvailable}
	var wb wireBook
	if err := c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(id), nil, token, body, &wb); err != nil {
		return nil, err
	}
	return wb.toModel(), nil
}
