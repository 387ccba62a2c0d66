package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/acedema/acedema-back/internal/server/models"
	"github.com/acedema/acedema-back/internal/server/services"
)

const maxBodyBytes = 1 << 20

type personaHandler struct {
	auth        AuthService
	profiles    ProfileService
	gate        Authorizer
	adminRoleID int
}

type registerRequest struct {
	Persona *models.Person `json:"persona"`
}

type loginRequest struct {
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
}

type updatePasswordRequest struct {
	Correo           string `json:"correo"`
	ContrasenaActual string `json:"contrasenaActual"`
	NuevaContrasena  string `json:"nuevaContrasena"`
}

type emailRequest struct {
	Correo string `json:"correo"`
}

type resetWithTokenRequest struct {
	Token           string `json:"token"`
	NuevaContrasena string `json:"nuevaContrasena"`
}

type getPersonRequest struct {
	PersonaID int64 `json:"personaId"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeBadRequest(w, msgBadRequest)
		return false
	}
	return true
}

func (h *personaHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Persona == nil {
		writeBadRequest(w, msgBadRequest)
		return
	}

	isAdmin := false
	if caller := callerFrom(r.Context()); caller != nil {
		isAdmin = caller.RoleID == h.adminRoleID
	}

	res := h.auth.Register(r.Context(), req.Persona, isAdmin)
	writeResult(w, res.Result, envelope{Persona: res.Person})
}

func (h *personaHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	res := h.auth.Login(r.Context(), req.Correo, req.Contrasena)
	writeResult(w, res.Result, envelope{Persona: res.Person, Token: res.Token})
}

func (h *personaHandler) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	caller := callerFrom(r.Context())
	if err := h.gate.CheckOwner(caller, req.Correo); err != nil {
		writeError(w, err)
		return
	}

	res := h.auth.UpdatePasswordAuthenticated(r.Context(), caller.Email, req.ContrasenaActual, req.NuevaContrasena)
	writeResult(w, res, envelope{})
}

// requestReset never echoes the reset token; it only travels by mail.
func (h *personaHandler) requestReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}

	res := h.auth.RequestPasswordReset(r.Context(), req.Correo)
	writeResult(w, res.Result, envelope{})
}

func (h *personaHandler) resetWithToken(w http.ResponseWriter, r *http.Request) {
	var req resetWithTokenRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" || req.NuevaContrasena == "" {
		writeBadRequest(w, msgTokenAndPass)
		return
	}

	res := h.auth.ResetPasswordWithToken(r.Context(), req.Token, req.NuevaContrasena)
	writeResult(w, res, envelope{})
}

func (h *personaHandler) getPerson(w http.ResponseWriter, r *http.Request) {
	var req getPersonRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PersonaID <= 0 {
		writeBadRequest(w, msgBadRequest)
		return
	}

	writeProfile(w, h.profiles.GetPerson(r.Context(), callerFrom(r.Context()), req.PersonaID))
}

func (h *personaHandler) profile(w http.ResponseWriter, r *http.Request) {
	writeProfile(w, h.profiles.GetProfile(r.Context(), callerFrom(r.Context())))
}

// updateProfile rejects a body declaring another person's email with 403
// before anything is read from the store.
func (h *personaHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if !decode(w, r, &upd) {
		return
	}

	caller := callerFrom(r.Context())
	if err := h.gate.CheckOwner(caller, upd.Email); err != nil {
		writeError(w, err)
		return
	}

	writeProfile(w, h.profiles.UpdateProfile(r.Context(), caller, &upd))
}

func writeProfile(w http.ResponseWriter, res services.ProfileResult) {
	writeResult(w, res.Result, envelope{Persona: res.Person})
}
