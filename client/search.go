package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
)

// SearchService manages saved searches, active searches, and pumping.
type SearchService struct {
	c *Client
}

// CreateSavedRequest is the payload for creating a saved search.
type CreateSavedRequest struct {
	Name  string          `json:"name"`
	Query QueryDescriptor `json:"query"`
}

// CreateSaved persists a named filter definition. A zero descriptor version
// defaults to 1 on the server.
func (s *SearchService) CreateSaved(ctx context.Context, req *CreateSavedRequest) (*SavedSearch, error) {
	var saved SavedSearch
	if err := s.c.post(ctx, "/api/v1/search/saved", req, &saved); err != nil {
		return nil, err
	}

	return &saved, nil
}

// GetSaved fetches a saved search by id.
func (s *SearchService) GetSaved(ctx context.Context, id string) (*SavedSearch, error) {
	var saved SavedSearch
	if err := s.c.get(ctx, "/api/v1/search/saved/"+url.PathEscape(id), nil, &saved); err != nil {
		return nil, err
	}

	return &saved, nil
}

// DeleteSaved removes a saved search. Active searches that reference it keep
// existing; their next pump fails with a 404.
func (s *SearchService) DeleteSaved(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/search/saved/"+url.PathEscape(id), nil, nil)
}

// CreateActive opens a resumable pagination session over a saved search.
func (s *SearchService) CreateActive(ctx context.Context, savedSearchID string) (*ActiveSearch, error) {
	body := map[string]string{"saved_search_id": savedSearchID}

	var active ActiveSearch
	if err := s.c.post(ctx, "/api/v1/search/active", body, &active); err != nil {
		return nil, err
	}

	return &active, nil
}

// GetActive fetches an active search by id.
func (s *SearchService) GetActive(ctx context.Context, id string) (*ActiveSearch, error) {
	var active ActiveSearch
	if err := s.c.get(ctx, "/api/v1/search/active/"+url.PathEscape(id), nil, &active); err != nil {
		return nil, err
	}

	return &active, nil
}

// PumpOptions tune a single pump call. The zero value resumes from the
// server-side cursor with the default page size and full records.
type PumpOptions struct {
	// PageSize caps the number of records returned. Zero means the server
	// default.
	PageSize int

	// Next overrides the server-side cursor with an explicit token from a
	// previous PumpResult.
	Next string

	// Mask projects records down to the selected fields. Nil returns full
	// records.
	Mask *MaskDescriptor
}

// Pump fetches the next page of an active search and advances its cursor.
func (s *SearchService) Pump(ctx context.Context, activeSearchID string, opts *PumpOptions) (*PumpResult, error) {
	path := "/api/v1/search/active/" + url.PathEscape(activeSearchID) + "/pump"

	params := url.Values{}
	var body any
	if opts != nil {
		if opts.PageSize > 0 {
			params.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Next != "" {
			params.Set("next", opts.Next)
		}
		if opts.Mask != nil {
			body = map[string]*MaskDescriptor{"mask": opts.Mask}
		}
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result PumpResult
	if err := s.c.post(ctx, path, body, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Query creates a saved search for the descriptor, opens an active search
// over it, and returns an iterator over the masked result set. The saved
// search persists after the iterator is drained and can be reopened later.
func (s *SearchService) Query(ctx context.Context, name string, q QueryDescriptor, mask *MaskDescriptor, pageSize int) (*SearchIterator, error) {
	if name == "" {
		name = "query-" + time.Now().UTC().Format("20060102T150405.000000000")
	}

	saved, err := s.CreateSaved(ctx, &CreateSavedRequest{Name: name, Query: q})
	if err != nil {
		return nil, fmt.Errorf("create saved search: %w", err)
	}

	active, err := s.CreateActive(ctx, saved.ID)
	if err != nil {
		return nil, fmt.Errorf("open active search: %w", err)
	}

	return s.Iterate(active.ID, &PumpOptions{PageSize: pageSize, Mask: mask}), nil
}

// Iterate returns an iterator that pumps the active search page by page.
func (s *SearchService) Iterate(activeSearchID string, opts *PumpOptions) *SearchIterator {
	return &SearchIterator{
		svc:      s,
		activeID: activeSearchID,
		opts:     opts,
	}
}

// SearchIterator walks an active search one page at a time. Transient
// failures (rate limits, 5xx, transport errors) are retried with exponential
// backoff; the server-side cursor only advances on success, so a retried pump
// never skips records.
type SearchIterator struct {
	svc      *SearchService
	activeID string
	opts     *PumpOptions
	done     bool
}

// Next fetches the next page. It returns nil, nil when the search is
// exhausted.
func (it *SearchIterator) Next(ctx context.Context) ([]PartialRecord, error) {
	if it.done {
		return nil, nil
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))

	var result *PumpResult
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := it.svc.Pump(ctx, it.activeID, it.opts)
		if err != nil {
			if isRetryable(err) {
				return retry.RetryableError(err)
			}

			return err
		}
		result = r

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pump %s: %w", it.activeID, err)
	}

	if len(result.Records) == 0 {
		it.done = true

		return nil, nil
	}

	// Explicit cursors are one-shot; subsequent pages resume from the
	// server-side cursor the successful pump just advanced.
	if it.opts != nil && it.opts.Next != "" {
		o := *it.opts
		o.Next = ""
		it.opts = &o
	}

	return result.Records, nil
}

// Restart rewinds the iterator to the start of the result set. The next pump
// is issued with an explicit zero cursor, which also resets the server-side
// session cursor.
func (it *SearchIterator) Restart() {
	o := PumpOptions{}
	if it.opts != nil {
		o = *it.opts
	}
	o.Next = "0"
	it.opts = &o
	it.done = false
}
