package endpoints

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the body of every error response.
type APIResponse struct {
	Status    bool   `json:"status"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code"`
}

func (res APIResponse) WriteErrorResponseWithStatusCode(w http.ResponseWriter, err error, StatusCode int) {
	res.Status = false
	res.Error = err.Error()
	res.ErrorCode = GetErrorCode(err)

	errJson, _ := json.Marshal(res)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(StatusCode)
	w.Write(errJson)
}

// WriteJSON writes result as a bare JSON document.
func WriteJSON(w http.ResponseWriter, statusCode int, result interface{}) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(statusCode)
	_, err = w.Write(body)
	return err
}

func WriteText(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(statusCode)
	w.Write([]byte(text))
}
