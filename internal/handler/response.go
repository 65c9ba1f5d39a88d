package handler

import (
	"errors"
	"net/http"

	"github.com/nao1215/sismoscrape/internal/extract"
	"github.com/nao1215/sismoscrape/internal/fetch"
	"github.com/nao1215/sismoscrape/internal/model"
	"github.com/nao1215/sismoscrape/internal/report"
	"github.com/nao1215/sismoscrape/internal/store"
)

// Messages returned in the "error" field of failure bodies.
const (
	MsgTableNotFound = "No se encontró la tabla"
	MsgFetchFailed   = "Error al obtener la página"
	MsgUpstream      = "La página respondió con un estado inesperado"
	MsgWriteFailed   = "Error al guardar los registros"
	MsgInternal      = "Error interno"
)

// Response is the result of one invocation.
type Response struct {
	StatusCode int    `json:"statusCode"` //nolint:tagliatelle // name expected by the function runtime
	Body       string `json:"body"`
}

type tableNotFoundBody struct {
	Error string `json:"error"`
	Page  string `json:"page"`
}

type detailsBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type upstreamBody struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

type writeFailureBody struct {
	Error     string          `json:"error"`
	Operation string          `json:"operation"`
	Details   string          `json:"details"`
	Rows      model.ResultSet `json:"rows"`
}

// respond maps a finished run to its Response.
func respond(run *model.Run) Response {
	err := run.Err
	if err == nil {
		rows := run.Rows
		if rows == nil {
			rows = model.ResultSet{}
		}
		return newResponse(http.StatusOK, rows)
	}

	var notFound *extract.TableNotFoundError
	if errors.As(err, &notFound) {
		return newResponse(http.StatusNotFound, tableNotFoundBody{
			Error: MsgTableNotFound,
			Page:  notFound.Page,
		})
	}

	var upstream *fetch.UpstreamStatusError
	if errors.As(err, &upstream) {
		return newResponse(upstream.StatusCode, upstreamBody{
			Error:      MsgUpstream,
			StatusCode: upstream.StatusCode,
		})
	}

	if errors.Is(err, fetch.ErrFetchTransport) {
		return newResponse(http.StatusInternalServerError, detailsBody{
			Error:   MsgFetchFailed,
			Details: err.Error(),
		})
	}

	var writeErr *store.WriteError
	if errors.As(err, &writeErr) {
		rows := run.Rows
		if rows == nil {
			rows = model.ResultSet{}
		}
		return newResponse(http.StatusInternalServerError, writeFailureBody{
			Error:     MsgWriteFailed,
			Operation: writeErr.Op,
			Details:   writeErr.Err.Error(),
			Rows:      rows,
		})
	}

	return newResponse(http.StatusInternalServerError, detailsBody{
		Error:   MsgInternal,
		Details: err.Error(),
	})
}

// newResponse encodes body without escaping non-ASCII or HTML characters.
func newResponse(status int, body any) Response {
	data, err := report.Marshal(body, "", "", false)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = report.Marshal(detailsBody{Error: MsgInternal, Details: err.Error()}, "", "", false)
	}
	return Response{StatusCode: status, Body: string(data)}
}
