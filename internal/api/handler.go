package api

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

// newHandler wires a decode/endpoint pair through the package-wide
// encodeResponse/errorEncoder, mirroring the teacher's
// store/handler.go:NewHandler.
func (s *Server) newHandler(e endpoint.Endpoint, decode kithttp.DecodeRequestFunc) http.Handler {
	return kithttp.NewServer(
		e,
		decode,
		encodeResponse,
		kithttp.ServerErrorEncoder(errorEncoder),
	)
}

// decodeNothing is used by endpoints with no path vars, query params or
// body to parse (e.g. /info).
func decodeNothing(_ context.Context, _ *http.Request) (interface{}, error) {
	return nil, nil
}
