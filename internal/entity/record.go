package entity

import (
	"encoding/json"
)

// Record is the flat metadata projection of one filesystem object.
//
// Two JSON shapes exist: a full record for existing objects, and a minimal
// {id, disk, path, exists} record for missing ones — all other keys are
// omitted entirely, not rendered as zero values.
type Record struct {
	ID             string
	Disk           string
	Name           string
	Path           string
	Size           any // int64, or string when human-readable rendering is on
	Extension      string
	Mime           string
	URL            string
	LastModifiedAt string
	Type           string
	Exists         bool
	Meta           map[string]any
}

type fullRecord struct {
	ID             string         `json:"id"`
	Disk           string         `json:"disk"`
	Name           string         `json:"name"`
	Path           string         `json:"path"`
	Size           any            `json:"size"`
	Extension      string         `json:"extension"`
	Mime           string         `json:"mime"`
	URL            string         `json:"url"`
	LastModifiedAt string         `json:"last_modified_at"`
	Type           string         `json:"type"`
	Exists         bool           `json:"exists"`
	Meta           map[string]any `json:"meta"`
}

type missingRecord struct {
	ID     string `json:"id"`
	Disk   string `json:"disk"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// MarshalJSON renders the shape matching the record's existence state.
func (r *Record) MarshalJSON() ([]byte, error) {
	if !r.Exists {
		return json.Marshal(missingRecord{
			ID:     r.ID,
			Disk:   r.Disk,
			Path:   r.Path,
			Exists: false,
		})
	}

	meta := r.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return json.Marshal(fullRecord{
		ID:             r.ID,
		Disk:           r.Disk,
		Name:           r.Name,
		Path:           r.Path,
		Size:           r.Size,
		Extension:      r.Extension,
		Mime:           r.Mime,
		URL:            r.URL,
		LastModifiedAt: r.LastModifiedAt,
		Type:           r.Type,
		Exists:         true,
		Meta:           meta,
	})
}
