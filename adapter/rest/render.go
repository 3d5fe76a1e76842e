package rest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pandaqa/pandaqa/api"
)

func renderJSON(w http.ResponseWriter, value any) {
	js, err := json.Marshal(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(js); err != nil {
		log.Printf("error writing response: %v", err)
	}
}

func renderJSONError(w http.ResponseWriter, status int, err error) {
	js, marshalErr := json.Marshal(api.Error{Message: err.Error()})
	if marshalErr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		log.Printf("error writing response: %v", err)
	}
}

func readRequestJSON(r *http.Request, target any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		return fmt.Errorf("expect application/json Content-Type, got %s", contentType)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
