package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API specification in YAML and JSON form.
// The spec file is read and converted once at startup; a missing or
// malformed file disables the endpoints rather than failing the server.
type OpenAPIHandler struct {
	yamlData []byte
	jsonData []byte
}

// NewOpenAPIHandler loads the OpenAPI spec from the given path.
func NewOpenAPIHandler(specPath string) *OpenAPIHandler {
	h := &OpenAPIHandler{}

	data, err := os.ReadFile(specPath)
	if err != nil {
		return h
	}
	h.yamlData = data

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return h
	}
	if encoded, err := json.Marshal(doc); err == nil {
		h.jsonData = encoded
	}
	return h
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	if h.yamlData == nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(h.yamlData); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
	}
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if h.jsonData == nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(h.jsonData); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
