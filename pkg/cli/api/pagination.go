package api

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// PaginatedResponse is the shared shape of every listing endpoint.
type PaginatedResponse struct {
	Data          []interface{} `json:"data"`
	NextPageToken string        `json:"next_page_token"`
}

// FetchAllPages follows next_page_token until the listing is exhausted and
// returns the concatenated items. baseQuery is copied per request, never
// mutated.
func FetchAllPages(client *Client, method, path string, baseQuery url.Values) ([]interface{}, error) {
	var (
		items     []interface{}
		pageToken string
	)

	for {
		query := url.Values{}
		for k, vs := range baseQuery {
			query[k] = append([]string(nil), vs...)
		}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		resp, err := client.Do(method, path, query, nil)
		if err != nil {
			return nil, err
		}
		if err := CheckError(resp); err != nil {
			return nil, err
		}
		body, err := ReadBody(resp)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		var page PaginatedResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}

		items = append(items, page.Data...)
		if page.NextPageToken == "" {
			return items, nil
		}
		pageToken = page.NextPageToken
	}
}
