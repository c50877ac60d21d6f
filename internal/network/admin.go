package network

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/engine"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/world"
)

// AdminAPI exposes world management over HTTP for operators and tests.
type AdminAPI struct {
	engine *engine.Engine
	world  *world.World
	repo   storage.EntityRepository
	hub    *Hub
	logger *logger.Logger
}

// NewAdminAPI creates the handler set.
func NewAdminAPI(eng *engine.Engine, w *world.World, repo storage.EntityRepository, hub *Hub, log *logger.Logger) *AdminAPI {
	return &AdminAPI{
		engine: eng,
		world:  w,
		repo:   repo,
		hub:    hub,
		logger: log,
	}
}

// SpawnRequest is the payload of POST /api/entities.
type SpawnRequest struct {
	TypeID    string      `json:"type_id"`
	Location  entity.Vec3 `json:"location"`
	Baby      bool        `json:"baby"`
	Duration  int64       `json:"growth_duration,omitempty"`
	Dimension string      `json:"dimension,omitempty"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	engine.Status
	Entities  int   `json:"entities"`
	Clients   int   `json:"clients"`
	Timestamp int64 `json:"timestamp"`
}

// HandleStatus reports the mechanic state.
// GET /api/status
func (a *AdminAPI) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var resp StatusResponse
	err := a.do(r.Context(), func() {
		resp.Status = a.engine.Status()
		resp.Entities = a.world.EntityCount()
	})
	if err != nil {
		a.jsonError(w, "World unavailable", http.StatusServiceUnavailable)
		return
	}
	resp.Clients = a.hub.ClientCount()
	resp.Timestamp = time.Now().Unix()
	a.jsonSuccess(w, http.StatusOK, resp)
}

// HandleSpawnEntity adds a creature to the world.
// POST /api/entities
func (a *AdminAPI) HandleSpawnEntity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SpawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TypeID == "" {
		a.jsonError(w, "Missing type_id", http.StatusBadRequest)
		return
	}

	e := entity.New(req.TypeID, req.Location)
	if req.Dimension != "" {
		e.Dimension = req.Dimension
	}
	if req.Baby {
		e.Ageable = entity.NewBaby(req.Duration)
	}

	var spawnErr error
	if err := a.do(r.Context(), func() { spawnErr = a.world.SpawnEntity(e) }); err != nil {
		a.jsonError(w, "World unavailable", http.StatusServiceUnavailable)
		return
	}
	if spawnErr != nil {
		a.jsonError(w, spawnErr.Error(), http.StatusConflict)
		return
	}

	a.logger.Event("ENTITY_SPAWNED", "ADMIN", e.TypeID+" "+string(e.ID))
	a.jsonSuccess(w, http.StatusCreated, map[string]interface{}{
		"id":      e.ID,
		"type_id": e.TypeID,
	})
}

// HandleSave persists the world.
// POST /api/world/save
func (a *AdminAPI) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n, err := world.Save(r.Context(), a.engine.Scheduler(), a.world, a.repo)
	if err != nil {
		a.logger.Error("world save failed", "err", err)
		a.jsonError(w, "Save failed", http.StatusInternalServerError)
		return
	}
	a.jsonSuccess(w, http.StatusOK, map[string]interface{}{
		"saved": n,
	})
}

// RegisterRoutes sets up the admin API routes.
func (a *AdminAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", a.HandleStatus)
	mux.HandleFunc("/api/entities", a.HandleSpawnEntity)
	mux.HandleFunc("/api/world/save", a.HandleSave)
}

func (a *AdminAPI) do(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.engine.Scheduler().Do(ctx, fn)
}

// jsonError sends an error response.
func (a *AdminAPI) jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (a *AdminAPI) jsonSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
