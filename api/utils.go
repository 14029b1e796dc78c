package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"stockgravity/database"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondRepoError maps repository errors onto HTTP statuses.
func respondRepoError(w http.ResponseWriter, err error) {
	var notFound *database.NotFoundError
	var transition *database.TransitionError
	var validation *database.ValidationError
	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &transition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// getIntParam reads an integer query parameter with a default.
func getIntParam(r *http.Request, name string, defaultValue int) int {
	if value := r.URL.Query().Get(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getFloatParam reads a float query parameter with a default.
func getFloatParam(r *http.Request, name string, defaultValue float64) float64 {
	if value := r.URL.Query().Get(name); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// decodeBody decodes a JSON request body into dest, tolerating an empty body.
func decodeBody(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dest)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
