package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/client"
	"github.com/skiffchat/skiff/store"
)

// fakeServer is a minimal stand-in for the category and preference
// endpoints. Handlers record what they saw so tests can assert on the
// request shape.
type fakeServer struct {
	*httptest.Server

	lastAuth    string
	lastUser    string
	lastTeam    string
	deletedID   string
	savedPrefs  []skiff.Preference
	categories  skiff.CategoriesWithOrder
	failWith    *int
	failMessage string
}

func newFakeServer() *fakeServer {
	f := &fakeServer{}

	r := mux.NewRouter()
	base := r.PathPrefix("/api/v4").Subrouter()
	base.Use(f.capture)

	categories := "/users/{user}/teams/{team}/channels/categories"
	base.HandleFunc(categories, f.getCategories).Methods(http.MethodGet)
	base.HandleFunc(categories, f.createCategory).Methods(http.MethodPost)
	base.HandleFunc(categories, f.echoBody).Methods(http.MethodPut)
	base.HandleFunc(categories+"/order", f.echoBody).Methods(http.MethodPut)
	base.HandleFunc(categories+"/{category}", f.deleteCategory).Methods(http.MethodDelete)
	base.HandleFunc("/users/{user}/preferences", f.savePreferences).Methods(http.MethodPut)
	base.HandleFunc("/users/{user}/preferences/delete", f.savePreferences).Methods(http.MethodPost)

	f.Server = httptest.NewServer(r)
	return f
}

func (f *fakeServer) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		vars := mux.Vars(r)
		f.lastUser = vars["user"]
		f.lastTeam = vars["team"]

		if f.failWith != nil {
			w.WriteHeader(*f.failWith)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":          "api.categories.error",
				"message":     f.failMessage,
				"status_code": *f.failWith,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeServer) getCategories(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(f.categories)
}

func (f *fakeServer) createCategory(w http.ResponseWriter, r *http.Request) {
	var in skiff.ChannelCategory
	json.NewDecoder(r.Body).Decode(&in)
	in.ID = "server-assigned"
	json.NewEncoder(w).Encode(in)
}

func (f *fakeServer) echoBody(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	json.NewDecoder(r.Body).Decode(&raw)
	w.Write(raw)
}

func (f *fakeServer) deleteCategory(w http.ResponseWriter, r *http.Request) {
	f.deletedID = mux.Vars(r)["category"]
	w.WriteHeader(http.StatusOK)
}

func (f *fakeServer) savePreferences(w http.ResponseWriter, r *http.Request) {
	json.NewDecoder(r.Body).Decode(&f.savedPrefs)
	w.WriteHeader(http.StatusOK)
}

func TestGetCategories(t *testing.T) {
	f := newFakeServer()
	defer f.Close()
	f.categories = skiff.CategoriesWithOrder{
		Categories: []*skiff.ChannelCategory{
			{ID: "custom1", TeamID: "team1", Type: skiff.CategoryCustom, ChannelIDs: []string{"channel1"}},
		},
		Order: []string{"custom1"},
	}

	c := client.New(f.URL, "secret-token")
	got, err := c.GetCategories(context.Background(), "me", "team1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", f.lastAuth)
	assert.Equal(t, "me", f.lastUser)
	assert.Equal(t, "team1", f.lastTeam)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "custom1", got.Categories[0].ID)
	assert.Equal(t, []string{"custom1"}, got.Order)
}

func TestCreateCategoryReturnsServerRecord(t *testing.T) {
	f := newFakeServer()
	defer f.Close()

	c := client.New(f.URL, "token")
	created, err := c.CreateCategory(context.Background(), "me", "team1", &skiff.ChannelCategory{
		TeamID: "team1", Type: skiff.CategoryCustom, DisplayName: "Projects",
	})
	require.NoError(t, err)
	assert.Equal(t, "server-assigned", created.ID)
	assert.Equal(t, "Projects", created.DisplayName)
}

func TestUpdateCategoryOrderRoundTrips(t *testing.T) {
	f := newFakeServer()
	defer f.Close()

	c := client.New(f.URL, "token")
	order := []string{"b", "a", "c"}
	got, err := c.UpdateCategoryOrder(context.Background(), "me", "team1", order)
	require.NoError(t, err)
	assert.Equal(t, order, got)
}

func TestDeleteCategoryHitsPath(t *testing.T) {
	f := newFakeServer()
	defer f.Close()

	c := client.New(f.URL, "token")
	require.NoError(t, c.DeleteCategory(context.Background(), "me", "team1", "custom1"))
	assert.Equal(t, "custom1", f.deletedID)
}

func TestSavePreferences(t *testing.T) {
	f := newFakeServer()
	defer f.Close()

	c := client.New(f.URL, "token")
	prefs := []skiff.Preference{
		{UserID: "me", Category: skiff.PreferenceFavoriteChannel, Name: "channel1", Value: "true"},
	}
	require.NoError(t, c.SavePreferences(context.Background(), "me", prefs))
	assert.Equal(t, prefs, f.savedPrefs)

	require.NoError(t, c.DeletePreferences(context.Background(), "me", prefs))
}

func TestServerErrorSurfaced(t *testing.T) {
	f := newFakeServer()
	defer f.Close()
	status := http.StatusBadRequest
	f.failWith = &status
	f.failMessage = "invalid category"

	c := client.New(f.URL, "token")
	_, err := c.GetCategories(context.Background(), "me", "team1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid category")
	assert.Contains(t, err.Error(), "api.categories.error")
}

func TestSyncTeams(t *testing.T) {
	f := newFakeServer()
	defer f.Close()
	f.categories = skiff.CategoriesWithOrder{
		Categories: []*skiff.ChannelCategory{
			{ID: "custom1", TeamID: "team1", Type: skiff.CategoryCustom, ChannelIDs: []string{}},
		},
		Order: []string{"custom1"},
	}

	st := store.New()
	c := client.New(f.URL, "token")
	require.NoError(t, c.SyncTeams(context.Background(), st, "me", []string{"team1"}))

	s := st.State()
	// memberships synthesized the defaults before the fetch landed
	assert.NotNil(t, s.Category("team1-channels"))
	assert.NotNil(t, s.Category("custom1"))
	assert.Equal(t, []string{"custom1"}, s.Categories.OrderByTeam["team1"])
}
