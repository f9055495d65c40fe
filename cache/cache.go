// Package cache persists the category and preference slices of the
// store to a local SQLite file, so the sidebar can render from the last
// known state before the first sync finishes. The cache is advisory: a
// missing or broken file means an empty cold start, never an error the
// app has to care about.
package cache

import (
	"database/sql"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL,
		type TEXT NOT NULL,
		display_name TEXT NOT NULL,
		sorting TEXT NOT NULL,
		channel_ids TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS category_order (
		team_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		category_id TEXT NOT NULL,
		PRIMARY KEY (team_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS preferences (
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (category, name)
	)`,
}

// Cache wraps the snapshot database.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot file.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening cache")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "pinging cache")
	}

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "migrating cache")
		}
	}
	return &Cache{db: db}, nil
}

// Close closes the snapshot file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save rewrites the snapshot from the given state in one transaction.
func (c *Cache) Save(s store.State) error {
	tx, err := c.db.Begin()
	if err != nil {
		return errors.Wrap(err, "starting snapshot")
	}
	defer tx.Rollback()

	for _, table := range []string{"categories", "category_order", "preferences"} {
		if _, err := qb.Delete(table).RunWith(tx).Exec(); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}

	for _, category := range s.Categories.ByID {
		ids, err := json.Marshal(category.ChannelIDs)
		if err != nil {
			return errors.Wrap(err, "encoding channel ids")
		}
		_, err = qb.Insert("categories").
			Columns("id", "team_id", "type", "display_name", "sorting", "channel_ids").
			Values(category.ID, category.TeamID, string(category.Type), category.DisplayName, string(category.Sorting), string(ids)).
			RunWith(tx).Exec()
		if err != nil {
			return errors.Wrap(err, "saving category")
		}
	}

	for teamID, order := range s.Categories.OrderByTeam {
		for position, categoryID := range order {
			_, err := qb.Insert("category_order").
				Columns("team_id", "position", "category_id").
				Values(teamID, position, categoryID).
				RunWith(tx).Exec()
			if err != nil {
				return errors.Wrap(err, "saving category order")
			}
		}
	}

	for _, p := range s.Entities.Preferences {
		_, err := qb.Insert("preferences").
			Columns("category", "name", "user_id", "value").
			Values(p.Category, p.Name, p.UserID, p.Value).
			RunWith(tx).Exec()
		if err != nil {
			return errors.Wrap(err, "saving preference")
		}
	}

	return errors.Wrap(tx.Commit(), "committing snapshot")
}

// Load reads the snapshot back as events to replay into a fresh store.
func (c *Cache) Load() ([]skiff.Event, error) {
	var events []skiff.Event

	categories, err := c.loadCategories()
	if err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		events = append(events, skiff.CategoriesReceived{Categories: categories})
	}

	orders, err := c.loadOrders()
	if err != nil {
		return nil, err
	}
	for teamID, order := range orders {
		events = append(events, skiff.CategoryOrderReceived{TeamID: teamID, Order: order})
	}

	preferences, err := c.loadPreferences()
	if err != nil {
		return nil, err
	}
	if len(preferences) > 0 {
		events = append(events, skiff.PreferencesChanged{Preferences: preferences})
	}

	return events, nil
}

func (c *Cache) loadCategories() ([]*skiff.ChannelCategory, error) {
	rows, err := qb.Select("id", "team_id", "type", "display_name", "sorting", "channel_ids").
		From("categories").RunWith(c.db).Query()
	if err != nil {
		return nil, errors.Wrap(err, "loading categories")
	}
	defer rows.Close()

	var out []*skiff.ChannelCategory
	for rows.Next() {
		var category skiff.ChannelCategory
		var ids string
		if err := rows.Scan(&category.ID, &category.TeamID, &category.Type, &category.DisplayName, &category.Sorting, &ids); err != nil {
			return nil, errors.Wrap(err, "scanning category")
		}
		if err := json.Unmarshal([]byte(ids), &category.ChannelIDs); err != nil {
			logrus.WithError(err).Warnf("dropping cached category %s with bad channel ids", category.ID)
			continue
		}
		out = append(out, &category)
	}
	return out, rows.Err()
}

func (c *Cache) loadOrders() (map[string][]string, error) {
	rows, err := qb.Select("team_id", "category_id").
		From("category_order").OrderBy("team_id", "position").
		RunWith(c.db).Query()
	if err != nil {
		return nil, errors.Wrap(err, "loading category order")
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var teamID, categoryID string
		if err := rows.Scan(&teamID, &categoryID); err != nil {
			return nil, errors.Wrap(err, "scanning category order")
		}
		out[teamID] = append(out[teamID], categoryID)
	}
	return out, rows.Err()
}

func (c *Cache) loadPreferences() ([]skiff.Preference, error) {
	rows, err := qb.Select("category", "name", "user_id", "value").
		From("preferences").RunWith(c.db).Query()
	if err != nil {
		return nil, errors.Wrap(err, "loading preferences")
	}
	defer rows.Close()

	var out []skiff.Preference
	for rows.Next() {
		var p skiff.Preference
		if err := rows.Scan(&p.Category, &p.Name, &p.UserID, &p.Value); err != nil {
			return nil, errors.Wrap(err, "scanning preference")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
