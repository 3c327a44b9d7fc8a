package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// response is the uniform value every endpoint.Endpoint in this package
// returns on success; a single encodeResponse (mirroring the teacher's
// EncodeResponse in store/handler.go) knows how to turn it into bytes on
// the wire, so individual endpoints never touch http.ResponseWriter.
type response struct {
	status  int
	body    interface{} // nil means no body
	headers map[string]string
}

func statusOnly(status int) response { return response{status: status} }

func withBody(status int, body interface{}) response {
	return response{status: status, body: body}
}

func withHeader(r response, key, value string) response {
	if r.headers == nil {
		r.headers = map[string]string{}
	}
	r.headers[key] = value
	return r
}

func created(body interface{}) response { return withBody(http.StatusCreated, body) }
func accepted(body interface{}) response { return withBody(http.StatusAccepted, body) }
func issuedNow(now int64) response {
	return accepted(map[string]int64{"issued": now})
}
func noContent() response { return statusOnly(http.StatusNoContent) }
func ok(body interface{}) response { return withBody(http.StatusOK, body) }

// encodeResponse is the single EncodeResponseFunc shared by every handler
// in this package.
func encodeResponse(_ context.Context, w http.ResponseWriter, value interface{}) error {
	resp, ok := value.(response)
	if !ok {
		return ErrCasting
	}
	for k, v := range resp.headers {
		w.Header().Set(k, v)
	}
	if resp.body == nil {
		w.WriteHeader(resp.status)
		return nil
	}
	data, err := json.Marshal(resp.body)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, err = w.Write(data)
	return err
}

// errorEncoder is the single ServerErrorEncoder shared by every handler,
// mirroring the teacher's store/transport.go encodeError: it consults
// StatusCoder for the code and writes the httpError's body (if any),
// otherwise an empty 500 body, per spec §7's "unexpected handler failure".
func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	status := http.StatusInternalServerError
	var body interface{}
	if he, ok := err.(httpError); ok {
		status = he.StatusCode()
		body = he.Body()
	}
	if body == nil {
		w.WriteHeader(status)
		return
	}
	data, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
