package server

import (
	"encoding/json"
	"net/http"
)

// maxBodySize bounds request bodies; task submissions are small.
const maxBodySize = 1 << 20

func decode(r *http.Request, v any) error {
	defer r.Body.Close()

	return json.
		NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize)).
		Decode(v)
}

func encode(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.
		NewEncoder(w).
		Encode(v)
}
