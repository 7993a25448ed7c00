package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/carefinder/libs/httpx"
	"github.com/md-rashed-zaman/carefinder/services/booking-service/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindInvalidState: http.StatusUnprocessableEntity,
	apperr.KindConflict:     http.StatusConflict,
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindTimeout:      http.StatusGatewayTimeout,
	apperr.KindUnavailable:  http.StatusServiceUnavailable,
}

func writeErr(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		logger.Error("unclassified error", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Warn("request failed", "path", r.URL.Path, "kind", string(kind), "err", err)
	}
	httpx.WriteError(w, r, status, string(kind), msg)
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	httpx.WriteError(w, r, http.StatusBadRequest, string(apperr.KindValidation), msg)
}
