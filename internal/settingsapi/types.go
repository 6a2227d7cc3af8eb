package settingsapi

import (
	"encoding/json"

	"github.com/five82/dials/internal/setting"
)

// SectionListResponse mirrors GET /api/settings.
type SectionListResponse struct {
	Sections []setting.SectionPath `json:"sections"`
}

// SectionResponse mirrors GET /api/settings/{section}.
type SectionResponse struct {
	Section  setting.SectionPath `json:"section"`
	Settings []setting.Setting   `json:"settings"`
}

// ValueRequest is the body of PUT /api/settings/{section}/{key}.
type ValueRequest struct {
	Value setting.Value `json:"value"`
}

// BatchRequest is the body of POST /api/settings/batch.
type BatchRequest struct {
	Updates []setting.Update `json:"updates"`
}

// BatchResponse mirrors POST /api/settings/batch.
type BatchResponse struct {
	Results []setting.UpdateResult `json:"results"`
}

// DefaultsResponse mirrors GET /api/settings/{section}/defaults.
type DefaultsResponse struct {
	Defaults map[setting.Key]setting.Value `json:"defaults"`
}

// Region is one row of the regions table.
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RegionNameRequest is the body for create and rename.
type RegionNameRequest struct {
	Name string `json:"name"`
}

// RegionDeleteRequest is the body of DELETE /api/regions.
type RegionDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Envelope wraps every regions response.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Event is pushed over the /api/events websocket.
type Event struct {
	Type    string              `json:"type"`
	Section setting.SectionPath `json:"section,omitempty"`
}

// EventSectionChanged announces that a section was written by someone.
const EventSectionChanged = "section_changed"
