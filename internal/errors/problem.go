package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails is an RFC 7807 problem. Extensions are written as
// top-level members next to the standard ones.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]interface{}
}

// NewProblemDetails creates a problem
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: map[string]interface{}{},
	}
}

// WithExtension sets an extension member and returns pd.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// Render implements render.Renderer.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		m[k] = v
	}
	m["type"] = pd.Type
	m["title"] = pd.Title
	m["status"] = pd.Status
	if pd.Detail != "" {
		m["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		m["instance"] = pd.Instance
	}
	return json.Marshal(m)
}
