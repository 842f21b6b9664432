// Package handlers provides the HTTP handlers of the dashboard: the page,
// the login routes, the state and event APIs and the health endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/constants"
)

// writeJSON writes body as a JSON response with statusCode.
func writeJSON(w http.ResponseWriter, logger *logrus.Logger, body interface{}, statusCode int) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError writes a simple error response.
func writeError(w http.ResponseWriter, logger *logrus.Logger, message string, statusCode int) {
	writeJSON(w, logger, map[string]string{"error": message}, statusCode)
}
