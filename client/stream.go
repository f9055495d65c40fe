package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/skiffchat/skiff"
	"github.com/skiffchat/skiff/store"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// envelope is the frame the server pushes for every event.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// eventHandler decodes one envelope's payload into store events.
type eventHandler func(data json.RawMessage) ([]skiff.Event, error)

// Stream maintains the websocket connection and fans server events out
// into the store through a closed dispatch table: one handler per known
// event name, unknown names dropped with a debug log.
type Stream struct {
	url      string
	token    string
	store    *store.Store
	dialer   *websocket.Dialer
	handlers map[string]eventHandler

	// Backoff bounds for redialing after a dropped connection.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// NewStream builds a Stream for the websocket endpoint at wsURL.
func NewStream(wsURL, token string, st *store.Store) *Stream {
	s := &Stream{
		url:        wsURL,
		token:      token,
		store:      st,
		dialer:     websocket.DefaultDialer,
		MinBackoff: time.Second,
		MaxBackoff: time.Minute,
	}
	s.handlers = map[string]eventHandler{
		"sidebar_category_created":       decodeCategory,
		"sidebar_category_updated":       decodeCategory,
		"sidebar_category_deleted":       decodeCategoryDeleted,
		"sidebar_category_order_updated": decodeCategoryOrder,
		"preferences_changed":            decodePreferencesChanged,
		"preferences_deleted":            decodePreferencesDeleted,
		"channel_created":                decodeChannel,
		"channel_updated":                decodeChannel,
		"channel_converted":              decodeChannel,
		"channel_deleted":                decodeChannelDeleted,
		"user_removed":                   decodeChannelLeft,
		"added_to_team":                  decodeTeamAdded,
		"leave_team":                     decodeTeamLeft,
		"posted":                         decodePosted,
		"user_updated":                   decodeUser,
	}
	return s
}

// Listen connects and pumps events into the store until the context is
// canceled, redialing with capped exponential backoff on any drop.
func (s *Stream) Listen(ctx context.Context) error {
	backoff := s.MinBackoff
	for {
		err := s.pump(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logrus.WithError(err).Warnf("websocket dropped, redialing in %s", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.MaxBackoff {
			backoff = s.MaxBackoff
		}
	}
}

// pump dials, authenticates, and reads envelopes until the connection
// dies. Modeled as a read pump with ping keepalives on a side ticker.
func (s *Stream) pump(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return errors.Wrap(err, "dialing websocket")
	}
	defer conn.Close()

	challenge := map[string]interface{}{
		"action": "authentication_challenge",
		"data":   map[string]string{"token": s.token},
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(challenge); err != nil {
		return errors.Wrap(err, "authenticating websocket")
	}

	done := make(chan struct{})
	defer close(done)
	go s.keepalive(ctx, conn, done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseGoingAway) {
				return errors.Wrap(err, "websocket closed by server")
			}
			return errors.Wrap(err, "reading websocket")
		}
		s.digest(env)
	}
}

func (s *Stream) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			conn.Close()
			return
		}
	}
}

// digest routes one envelope through the dispatch table.
func (s *Stream) digest(env envelope) {
	handler, ok := s.handlers[env.Event]
	if !ok {
		logrus.Debugf("dropping unknown event %q", env.Event)
		return
	}

	events, err := handler(env.Data)
	if err != nil {
		logrus.WithError(err).Errorf("bad payload for event %q", env.Event)
		return
	}
	s.store.Dispatch(events...)
}

func decodeCategory(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		Category *skiff.ChannelCategory `json:"category"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Category == nil {
		return nil, errors.New("missing category")
	}
	return []skiff.Event{skiff.CategoryReceived{Category: payload.Category}}, nil
}

func decodeCategoryDeleted(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		CategoryID string `json:"category_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.CategoryDeleted{CategoryID: payload.CategoryID}}, nil
}

func decodeCategoryOrder(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		TeamID string   `json:"team_id"`
		Order  []string `json:"order"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.CategoryOrderReceived{TeamID: payload.TeamID, Order: payload.Order}}, nil
}

func decodePreferencesChanged(data json.RawMessage) ([]skiff.Event, error) {
	prefs, err := decodePreferences(data)
	if err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.PreferencesChanged{Preferences: prefs}}, nil
}

func decodePreferencesDeleted(data json.RawMessage) ([]skiff.Event, error) {
	prefs, err := decodePreferences(data)
	if err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.PreferencesDeleted{Preferences: prefs}}, nil
}

func decodePreferences(data json.RawMessage) ([]skiff.Preference, error) {
	var payload struct {
		Preferences []skiff.Preference `json:"preferences"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload.Preferences, nil
}

func decodeChannel(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		Channel *skiff.Channel `json:"channel"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Channel == nil {
		return nil, errors.New("missing channel")
	}
	return []skiff.Event{skiff.ChannelsReceived{Channels: []*skiff.Channel{payload.Channel}}}, nil
}

func decodeChannelDeleted(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		ChannelID string `json:"channel_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.ChannelDeleted{ChannelID: payload.ChannelID}}, nil
}

func decodeChannelLeft(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		ChannelID string `json:"channel_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.ChannelLeft{ChannelID: payload.ChannelID}}, nil
}

func decodeTeamAdded(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		TeamID string `json:"team_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.TeamMembershipsReceived{TeamIDs: []string{payload.TeamID}}}, nil
}

func decodeTeamLeft(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		TeamID string `json:"team_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.TeamLeft{TeamID: payload.TeamID}}, nil
}

func decodePosted(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		ChannelID string `json:"channel_id"`
		CreateAt  int64  `json:"create_at"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return []skiff.Event{skiff.PostReceived{ChannelID: payload.ChannelID, CreateAt: payload.CreateAt}}, nil
}

func decodeUser(data json.RawMessage) ([]skiff.Event, error) {
	var payload struct {
		User *skiff.User `json:"user"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.User == nil {
		return nil, errors.New("missing user")
	}
	return []skiff.Event{skiff.UsersReceived{Users: []*skiff.User{payload.User}}}, nil
}
