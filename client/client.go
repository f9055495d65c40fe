// Package client holds the REST bindings and websocket event stream
// feeding the store. It never interprets entities beyond decoding them:
// validation happened server-side, projection happens in the reducers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

// Client calls the Skiff REST API with an opaque bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a REST client for the server at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// serverError is the body the server sends with 4xx/5xx responses.
type serverError struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func (e *serverError) Error() string {
	return fmt.Sprintf("%s (%s, status %d)", e.Message, e.ID, e.StatusCode)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body *bytes.Buffer
	if in != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v4"+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		srvErr := &serverError{StatusCode: resp.StatusCode, Message: resp.Status}
		_ = json.NewDecoder(resp.Body).Decode(srvErr)
		return errors.Wrapf(srvErr, "%s %s", method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

func categoriesPath(userID, teamID string) string {
	return fmt.Sprintf("/users/%s/teams/%s/channels/categories", userID, teamID)
}

// GetCategories fetches a team's categories and their display order.
func (c *Client) GetCategories(ctx context.Context, userID, teamID string) (*skiff.CategoriesWithOrder, error) {
	var out skiff.CategoriesWithOrder
	if err := c.do(ctx, http.MethodGet, categoriesPath(userID, teamID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCategory asks the server to create a category; the returned
// record carries the server-assigned ID.
func (c *Client) CreateCategory(ctx context.Context, userID, teamID string, category *skiff.ChannelCategory) (*skiff.ChannelCategory, error) {
	var out skiff.ChannelCategory
	if err := c.do(ctx, http.MethodPost, categoriesPath(userID, teamID), category, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategories replaces the given category records server-side.
func (c *Client) UpdateCategories(ctx context.Context, userID, teamID string, categories []*skiff.ChannelCategory) ([]*skiff.ChannelCategory, error) {
	var out []*skiff.ChannelCategory
	if err := c.do(ctx, http.MethodPut, categoriesPath(userID, teamID), categories, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCategoryOrder replaces the team's category order wholesale.
func (c *Client) UpdateCategoryOrder(ctx context.Context, userID, teamID string, order []string) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodPut, categoriesPath(userID, teamID)+"/order", order, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCategory removes a custom category server-side.
func (c *Client) DeleteCategory(ctx context.Context, userID, teamID, categoryID string) error {
	return c.do(ctx, http.MethodDelete, categoriesPath(userID, teamID)+"/"+categoryID, nil, nil)
}

// SavePreferences upserts preference entries.
func (c *Client) SavePreferences(ctx context.Context, userID string, preferences []skiff.Preference) error {
	return c.do(ctx, http.MethodPut, "/users/"+userID+"/preferences", preferences, nil)
}

// DeletePreferences removes preference entries.
func (c *Client) DeletePreferences(ctx context.Context, userID string, preferences []skiff.Preference) error {
	return c.do(ctx, http.MethodPost, "/users/"+userID+"/preferences/delete", preferences, nil)
}

// SyncTeams pulls each team's categories into the store. Memberships
// are dispatched first so default categories exist even when the fetch
// comes back empty for a fresh team.
func (c *Client) SyncTeams(ctx context.Context, st *store.Store, userID string, teamIDs []string) error {
	st.Dispatch(skiff.TeamMembershipsReceived{TeamIDs: teamIDs})

	for _, teamID := range teamIDs {
		fetched, err := c.GetCategories(ctx, userID, teamID)
		if err != nil {
			return errors.Wrapf(err, "syncing team %s", teamID)
		}
		st.Dispatch(
			skiff.CategoriesReceived{Categories: fetched.Categories},
			skiff.CategoryOrderReceived{TeamID: teamID, Order: fetched.Order},
		)
	}
	return nil
}
