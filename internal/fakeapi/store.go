package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/five82/dials/internal/setting"
	"github.com/five82/dials/internal/settingsapi"
)

var (
	errUnknownSection = errors.New("unknown section")
	errWriteRejected  = errors.New("write rejected")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnknownSection):
		return http.StatusNotFound
	case errors.Is(err, errWriteRejected):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) apply(section setting.SectionPath, key setting.Key, value setting.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.values[section]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownSection, section)
	}
	if s.failWrites[key] {
		return fmt.Errorf("%w: %s", errWriteRejected, key)
	}
	if value.IsNull() {
		return fmt.Errorf("null value for %s", key)
	}
	s.values[section] = setting.Merge(list, key, value)
	s.writeCount++
	return nil
}

// FailSection makes GET of section return 500 while on.
func (s *Server) FailSection(section setting.SectionPath, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[section] = on
}

// DropKey hides key from section reads while on.
func (s *Server) DropKey(section setting.SectionPath, key setting.Key, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped[section] == nil {
		s.dropped[section] = make(map[setting.Key]bool)
	}
	s.dropped[section][key] = on
}

// FailWrites rejects writes of key while on.
func (s *Server) FailWrites(key setting.Key, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites[key] = on
}

// SetValue changes a value out of band, as another administrator would,
// and announces it on the event stream.
func (s *Server) SetValue(section setting.SectionPath, key setting.Key, value setting.Value) error {
	if err := s.apply(section, key, value); err != nil {
		return err
	}
	s.publish(section)
	return nil
}

// Value reads the stored value of key.
func (s *Server) Value(section setting.SectionPath, key setting.Key) (setting.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return setting.Find(s.values[section], key)
}

// Writes counts accepted single and batch writes.
func (s *Server) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeCount
}

// Fetches counts GET requests for section.
func (s *Server) Fetches(section setting.SectionPath) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchCount[section]
}

// Regions returns the regions table.
func (s *Server) Regions() []settingsapi.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]settingsapi.Region(nil), s.regions...)
}

// Clients counts connected websocket subscribers.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) publish(section setting.SectionPath) {
	data, err := json.Marshal(settingsapi.Event{Type: settingsapi.EventSectionChanged, Section: section})
	if err != nil {
		return
	}
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.broadcast <- data:
	default:
		s.logger.Warn("event dropped, broadcast queue full", "section", section)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	s.logger.Debug("event subscriber connected", "remote", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	s.logger.Debug("event subscriber disconnected", "remote", r.RemoteAddr)
}

func (s *Server) handleBroadcasts() {
	for message := range s.broadcast {
		s.clientsMu.Lock()
		for client := range s.clients {
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				_ = client.Close()
				delete(s.clients, client)
			}
		}
		s.clientsMu.Unlock()
	}

	s.clientsMu.Lock()
	for client := range s.clients {
		_ = client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
		_ = client.Close()
		delete(s.clients, client)
	}
	s.clientsMu.Unlock()
}
