package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/pkg/cli/api"
)

// stateClient reads registry state over the HTTP API and executes plan
// actions against it. It resolves create and update payloads from the
// desired state so apply pushes exactly what the YAML declares.
type stateClient struct {
	client  *api.Client
	desired *declarative.DesiredState
}

func newStateClient(client *api.Client, desired *declarative.DesiredState) *stateClient {
	return &stateClient{client: client, desired: desired}
}

// ReadState fetches every registered template and lookup table.
func (s *stateClient) ReadState() (*declarative.ActualState, error) {
	templates, err := s.fetchTemplates()
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	lookups, err := s.fetchLookups()
	if err != nil {
		return nil, fmt.Errorf("list lookup tables: %w", err)
	}
	return &declarative.ActualState{Templates: templates, Lookups: lookups}, nil
}

func (s *stateClient) fetchTemplates() ([]*domain.Template, error) {
	var all []*domain.Template
	pageToken := ""
	for {
		query := url.Values{}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}
		resp, err := s.client.Do(http.MethodGet, "/templates", query, nil)
		if err != nil {
			return nil, err
		}
		if err := api.CheckError(resp); err != nil {
			return nil, err
		}
		body, err := api.ReadBody(resp)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		var page struct {
			Data          []*domain.Template `json:"data"`
			NextPageToken string             `json:"next_page_token"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
		all = append(all, page.Data...)

		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

func (s *stateClient) fetchLookups() (map[string][]string, error) {
	resp, err := s.client.Do(http.MethodGet, "/lookups", nil, nil)
	if err != nil {
		return nil, err
	}
	if err := api.CheckError(resp); err != nil {
		return nil, err
	}
	body, err := api.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var page struct {
		Data []struct {
			Table  string   `json:"table"`
			Values []string `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	lookups := make(map[string][]string, len(page.Data))
	for _, t := range page.Data {
		lookups[t.Table] = t.Values
	}
	return lookups, nil
}

// Execute applies one plan action. Registration is idempotent on the
// server, so creates and updates both go through the register endpoint.
func (s *stateClient) Execute(action declarative.Action) error {
	switch action.ResourceKind {
	case declarative.KindLookupTable:
		return s.executeLookup(action)
	case declarative.KindTemplate:
		return s.executeTemplate(action)
	default:
		return fmt.Errorf("unknown resource kind %v", action.ResourceKind)
	}
}

func (s *stateClient) executeLookup(action declarative.Action) error {
	switch action.Operation {
	case declarative.OpCreate, declarative.OpUpdate:
		values, err := s.desiredLookupValues(action.ResourceName)
		if err != nil {
			return err
		}
		body := map[string]interface{}{"values": values}
		return s.do(http.MethodPut, "/lookups/"+action.ResourceName, body)
	default:
		return fmt.Errorf("lookup table %q: unsupported operation %v", action.ResourceName, action.Operation)
	}
}

func (s *stateClient) executeTemplate(action declarative.Action) error {
	switch action.Operation {
	case declarative.OpCreate, declarative.OpUpdate:
		tmpl, err := s.desiredTemplate(action.ResourceName)
		if err != nil {
			return err
		}
		return s.do(http.MethodPost, "/templates", tmpl)
	case declarative.OpDelete:
		return s.do(http.MethodDelete, "/templates/"+action.ResourceName, nil)
	default:
		return fmt.Errorf("template %q: unsupported operation %v", action.ResourceName, action.Operation)
	}
}

func (s *stateClient) desiredLookupValues(name string) ([]string, error) {
	for _, lt := range s.desired.LookupTables {
		if lt.Spec.Name == name {
			return lt.Spec.Values, nil
		}
	}
	return nil, fmt.Errorf("lookup table %q not found in desired state", name)
}

func (s *stateClient) desiredTemplate(name string) (*domain.Template, error) {
	for _, tr := range s.desired.Templates {
		if tr.Name == name {
			tmpl, err := tr.ToDomain()
			if err != nil {
				return nil, fmt.Errorf("convert template %q: %w", name, err)
			}
			return tmpl, nil
		}
	}
	return nil, fmt.Errorf("template %q not found in desired state", name)
}

func (s *stateClient) do(method, path string, body interface{}) error {
	resp, err := s.client.Do(method, path, nil, body)
	if err != nil {
		return err
	}
	if err := api.CheckError(resp); err != nil {
		return err
	}
	_, _ = api.ReadBody(resp)
	return nil
}
