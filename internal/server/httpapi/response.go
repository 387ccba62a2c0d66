package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/services"
)

// envelope is the body of every /api/persona response.
type envelope struct {
	Resultado      bool           `json:"resultado"`
	Mensaje        string         `json:"mensaje"`
	ListaDeErrores []string       `json:"listaDeErrores"`
	Persona        *models.Person `json:"persona,omitempty"`
	Token          string         `json:"token,omitempty"`
}

const (
	msgBadRequest   = "Solicitud inválida."
	msgUnauthorized = "Debe iniciar sesión para continuar."
	msgForbidden    = "No tiene permiso para realizar esta operación."
	msgInternal     = "Ocurrió un error interno. Intente de nuevo más tarde."
	msgRateLimited  = "Demasiadas solicitudes. Intente de nuevo más tarde."
	msgTokenAndPass = "Token y nueva contraseña son obligatorios."
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrNotification):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeResult renders a service result with the status of its error kind.
func writeResult(w http.ResponseWriter, r services.Result, body envelope) {
	body.Resultado = r.Success
	body.Mensaje = r.Message
	body.ListaDeErrores = r.Errors
	if body.ListaDeErrores == nil {
		body.ListaDeErrores = []string{}
	}
	writeJSON(w, statusFor(r.Err), body)
}

// writeError renders a failure that did not come from a service result.
func writeError(w http.ResponseWriter, err error) {
	msg := msgInternal
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		msg = msgUnauthorized
	case errors.Is(err, common.ErrForbidden):
		msg = msgForbidden
	}
	writeJSON(w, statusFor(err), envelope{Mensaje: msg, ListaDeErrores: []string{msg}})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Mensaje: msg, ListaDeErrores: []string{msg}})
}
