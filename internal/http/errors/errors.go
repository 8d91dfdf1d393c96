package errors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

// errorResponse controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe la respuesta JSON para err.
// Los 5xx se loguean con la causa completa; la causa nunca se expone al cliente.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorCtx(context.Background(), w, err)
}

// WriteErrorCtx es WriteError usando el logger scoped del request.
func WriteErrorCtx(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(ctx).Error("request failed",
			logger.String("code", appErr.Code),
			logger.Status(appErr.HTTPStatus),
			logger.Err(appErr.Err),
		)
	}

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError && appErr.Code == ErrInternalServerError.Code {
		resp.Detail = ""
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
