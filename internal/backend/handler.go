package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/middleware"
)

type statusRequest struct {
	Status string `json:"status" example:"confirmed"`
	Reason string `json:"reason,omitempty" example:"cliente avisó"`
	Notes  string `json:"notes,omitempty"`
}

type matchRequest struct {
	ID      string `json:"id" example:"r-1"`
	MatchID string `json:"matchId" example:"r-2"`
}

// RegisterRoutes monta los endpoints REST de un dominio bajo /{kind}.
func RegisterRoutes[T entity.Entity[T]](r chi.Router, svc *Service[T]) {
	r.Route("/"+string(svc.Kind()), func(r chi.Router) {
		r.Get("/", listHandler(svc))
		r.Post("/", createHandler(svc))
		r.Post("/match", matchHandler(svc))

		r.Get("/{id}", getHandler(svc))
		r.Delete("/{id}", opHandler(svc, entity.OpDelete))
		r.Put("/{id}/status", statusHandler(svc))
		r.Put("/{id}/archive", opHandler(svc, entity.OpArchive))
		r.Put("/{id}/unarchive", opHandler(svc, entity.OpUnarchive))
		r.Put("/{id}/approve", opHandler(svc, entity.OpApprove))
	})
}

// listHandler godoc
// @Summary Listar entidades de un dominio
// @Description Devuelve la colección completa visible para el actor. Admin ve todo; professional y owner solo lo que referencia a su propio id. Autenticación: `X-Debug-User-ID` + `X-Debug-Role` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags entities
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev: admin | professional | owner"
// @Param Authorization header string false "Bearer token en producción"
// @Param kind path string true "appointments | reports | pets | users"
// @Success 200 {array} object
// @Failure 401 {string} string "unauthorized"
// @Router /{kind} [get]
func listHandler[T entity.Entity[T]](svc *Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := middleware.GetScope(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.List(r.Context(), scope)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// getHandler godoc
// @Summary Obtener una entidad
// @Tags entities
// @Produce json
// @Param kind path string true "appointments | reports | pets | users"
// @Param id path string true "ID de la entidad"
// @Success 200 {object} object
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /{kind}/{id} [get]
func getHandler[T entity.Entity[T]](svc *Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := middleware.GetScope(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		it, err := svc.Get(r.Context(), scope, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, svc.Kind(), entity.OpStatus, err)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

// createHandler godoc
// @Summary Crear una entidad
// @Description Alta de una entidad; emite el evento push `created`. Sin status usa el inicial del dominio. Para roles no admin el ownerRef es siempre el actor.
// @Tags entities
// @Accept json
// @Produce json
// @Param kind path string true "appointments | reports | pets | users"
// @Param payload body object true "Documento de la entidad"
// @Success 201 {object} object
// @Failure 400 {string} string "invalid json / status inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {string} string "already exists"
// @Router /{kind} [post]
func createHandler[T entity.Entity[T]](svc *Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := middleware.GetScope(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var in T
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		it, err := svc.Create(r.Context(), scope, in)
		if err != nil {
			writeError(w, svc.Kind(), entity.OpStatus, err)
			return
		}
		writeJSON(w, http.StatusCreated, it)
	}
}

// statusHandler godoc
// @Summary Transición de status
// @Description Aplica una transición de status validada contra la máquina de estados del dominio. Emite `statusChanged` (o `unmatched` en reports).
// @Tags entities
// @Accept json
// @Produce json
// @Param kind path string true "appointments | reports | pets | users"
// @Param id path string true "ID de la entidad"
// @Param payload body statusRequest true "Status destino y motivo opcional"
// @Success 200 {object} object
// @Failure 400 {string} string "Invalid status update"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /{kind}/{id}/status [put]
func statusHandler[T entity.Entity[T]](svc *Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := middleware.GetScope(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Status) == "" {
			http.Error(w, "status required", http.StatusBadRequest)
			return
		}
		it, _, err := svc.Apply(r.Context(), scope, chi.URLParam(r, "id"), entity.Request{
			Op:     entity.OpStatus,
			Status: strings.TrimSpace(req.Status),
			Reason: strings.TrimSpace(req.Reason),
			Notes:  strings.TrimSpace(req.Notes),
		})
		if err != nil {
			writeError(w, svc.Kind(), entity.OpStatus, err)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

// matchHandler godoc
// @Summary Vincular dos reportes
// @Description Marca el reporte `id` como Matched contra `matchId`. Requiere reporte aprobado y en Pending. Solo admin.
// @Tags entities
// @Accept json
// @Produce json
// @Param kind path string true "reports"
// @Param payload body matchRequest true "Reporte y su contraparte"
// @Success 200 {object} object
// @Failure 400 {string} string "invalid json / regla de negocio"
// @Failure 404 {string} string "not found"
// @Router /{kind}/match [post]
func matchHandler[T entity.Entity[T]](svc *Service[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := middleware.GetScope(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		it, _, err := svc.Apply(r.Context(), scope, req.ID, entity.Request{Op: entity.OpMatch, MatchID: strings.TrimSpace(req.MatchID)})
		if err != nil {
			writeError(w, svc.Kind(), entity.OpMatch, err)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

// opHandler godoc
// @Summary Acciones sin payload (archive, unarchive, approve, delete)
// @Description PUT /{kind}/{id}/archive | /unarchive | /approve y DELETE /{kind}/{id}. La legalidad depende del status actual y del rol.
// @Tags entities
// @Produce json
// @Param kind path string true "appointments | reports | pets | users"
// @Param id path string true "ID de la entidad"
// @Success 200 {object} object
// @Success 204 "eliminada"
// @Failure 400 {string} string "acción no permitida desde el status actual"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /{kind}/{id}/archive [put]
func opHandler[T entity.Entity[T]](svc *Service[T], op entity.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := middleware.GetScope(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		it, keep, err := svc.Apply(r.Context(), scope, chi.URLParam(r, "id"), entity.Request{Op: op})
		if err != nil {
			writeError(w, svc.Kind(), op, err)
			return
		}
		if !keep {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

// writeError mapea errores de dominio a status HTTP. El body es texto plano:
// el cliente lo muestra tal cual.
func writeError(w http.ResponseWriter, kind entity.Kind, op entity.Op, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, strings.TrimSuffix(string(kind), "s")+" not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrConflict):
		http.Error(w, "already exists", http.StatusConflict)
	case errors.As(err, &ve):
		http.Error(w, ve.Message, http.StatusBadRequest)
	case errors.Is(err, entity.ErrIneligible), errors.Is(err, entity.ErrUndeclaredStatus), errors.Is(err, entity.ErrUnknownAction):
		if op == entity.OpStatus {
			http.Error(w, "Invalid status update", http.StatusBadRequest)
			return
		}
		http.Error(w, "action not allowed from current status", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
