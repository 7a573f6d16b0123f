package editorapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/zeptools/gw-pdfedit/apis/docbackend"
	"github.com/zeptools/gw-pdfedit/editor"
	"github.com/zeptools/gw-pdfedit/overlay"
	"github.com/zeptools/gw-pdfedit/requests"
	"github.com/zeptools/gw-pdfedit/responses"
)

var errBadRequest = errors.New("bad request")

// writeError maps domain errors to status codes
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, editor.ErrUnknownSession):
		responses.WriteErrorJSON(w, http.StatusNotFound, responses.CodeUnknownSession, err.Error())
	case errors.Is(err, overlay.ErrNotFound):
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, err.Error())
	case errors.Is(err, editor.ErrStale):
		responses.WriteErrorJSON(w, http.StatusConflict, responses.CodeStale, err.Error())
	case errors.Is(err, editor.ErrBusy):
		responses.WriteErrorJSON(w, http.StatusConflict, responses.CodeBusy, err.Error())
	case errors.Is(err, editor.ErrPageNotReady):
		responses.WriteErrorJSON(w, http.StatusConflict, responses.CodeNotReady, err.Error())
	case errors.Is(err, overlay.ErrNoSelection):
		responses.WriteSimpleErrorJSON(w, http.StatusConflict, err.Error())
	case errors.Is(err, editor.ErrFileTooLarge), errors.As(err, &maxBytes):
		responses.WriteSimpleErrorJSON(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, errBadRequest),
		errors.Is(err, requests.ErrEmptyBody),
		errors.Is(err, editor.ErrUnknownTool),
		errors.Is(err, editor.ErrPageOutOfRange),
		errors.Is(err, editor.ErrIndexOutOfRange),
		errors.Is(err, editor.ErrNotSelfContained),
		errors.Is(err, editor.ErrUnsupportedType),
		errors.Is(err, editor.ErrNoFiles),
		errors.Is(err, overlay.ErrUnknownProperty),
		errors.Is(err, overlay.ErrInvalidValue):
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, docbackend.ErrBackend):
		responses.WriteErrorJSON(w, http.StatusBadGateway, responses.CodeBackend, err.Error())
	default:
		log.Printf("[ERROR][EditorAPI] %s %s: %v", r.Method, requests.FullURL(r), err)
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}

// decode reads a json body; decoding errors are bad requests
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	err := requests.DecodeJSON(w, r, v, MaxJSONBytes)
	var maxBytes *http.MaxBytesError
	if err == nil || errors.Is(err, requests.ErrEmptyBody) || errors.As(err, &maxBytes) {
		return err
	}
	return errors.Join(errBadRequest, err)
}
