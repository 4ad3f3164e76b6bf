/*
handlers.go - HTTP API handlers for the PERM deadline engine

PURPOSE:
  Exposes the deadline engine to the form-rendering client. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.
  Every computation is pure: a handler loads the case, asks the engine and
  persists whatever the engine says changed.

ENDPOINTS:
  Cases:
    GET    /api/cases                    List cases
    POST   /api/cases                    Create case (optional initial dates)
    GET    /api/cases/{id}               Get case
    PUT    /api/cases/{id}               Update case header
    DELETE /api/cases/{id}               Delete case

  Dates:
    PATCH  /api/cases/{id}/dates                      User edits ("" clears)
    POST   /api/cases/{id}/dates/{field}/recalculate  Drop a manual pin

  Computations:
    GET    /api/cases/{id}/constraints   Per-field min/max/hint
    GET    /api/cases/{id}/filing-window ETA 9089 filing window
    GET    /api/cases/{id}/validation    Cross-field validation
    POST   /api/cases/{id}/status-check  Status selection warning
    GET    /api/cases/{id}/deadlines     Upcoming deadlines
    GET    /api/cases/{id}/progress      Weighted completion

  Sections:
    GET    /api/cases/{id}/sections                      Section states
    POST   /api/cases/{id}/sections/{section}/toggle     Flip open state
    POST   /api/cases/{id}/sections/{section}/open       Open
    POST   /api/cases/{id}/sections/{section}/close      Close
    POST   /api/cases/{id}/sections/{section}/override   Force open
    DELETE /api/cases/{id}/sections/{section}/override   Undo force open

  Other:
    GET    /api/alerts                   Scheduler alerts (?case_id=)
    GET    /api/rules                    Active rule set

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Engine: Configured perm.Engine (rule set + clock)
  - RuleFactory: Renders the active rule set
  - Scheduler: Deadline scheduler, optional (next run on GET /api/alerts)

REQUEST FLOW:
  1. Parse HTTP request
  2. Load case + ownership (+ section session)
  3. Call the engine
  4. Persist the patch ("" = cleared) and ownership
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid dates, unknown fields or sections, schema violations
  - 404: Case not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/warp/perm-engine/factory"
	"github.com/warp/perm-engine/generic"
	"github.com/warp/perm-engine/perm"
	"github.com/warp/perm-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Engine      *perm.Engine
	RuleFactory *factory.RuleSetFactory
	Scheduler   *DeadlineScheduler

	// Serializes load-compute-write cycles so two edits of one case cannot
	// interleave.
	writeMu sync.Mutex

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, engine *perm.Engine) *Handler {
	return &Handler{
		Store:       store,
		Engine:      engine,
		RuleFactory: factory.NewRuleSetFactory(),
	}
}

// loadCase returns the case with its dates and ownership.
func (h *Handler) loadCase(ctx context.Context, id string) (*perm.Case, generic.Ownership, error) {
	c, err := h.Store.GetCase(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	_, own, err := h.Store.LoadFields(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return c, own, nil
}

// applyDates runs SetDate for every edit in catalogue order, so a source is
// always set before the fields derived from it.
func (h *Handler) applyDates(c perm.Case, own generic.Ownership, edits map[string]string) (perm.Update, error) {
	var unknown []string
	for name := range edits {
		if !perm.IsKnownField(generic.Field(name)) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return perm.Update{}, fmt.Errorf("%w: %s", generic.ErrUnknownField, unknown[0])
	}

	u := perm.Update{Case: c, Ownership: own, Patch: generic.Dates{}}
	for _, info := range perm.Catalogue {
		value, ok := edits[string(info.Field)]
		if !ok {
			continue
		}
		next, err := h.Engine.SetDate(u.Case, u.Ownership, info.Field, value)
		if err != nil {
			return perm.Update{}, err
		}
		u.Case, u.Ownership = next.Case, next.Ownership
		u.Patch.Apply(next.Patch)
	}
	return u, nil
}

// =============================================================================
// CASE HANDLERS
// =============================================================================

// ListCases returns all cases.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cases, err := h.Store.ListCases(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cases", err)
		return
	}

	dtos := make([]CaseDTO, 0, len(cases))
	for i := range cases {
		_, own, err := h.Store.LoadFields(ctx, cases[i].ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load case fields", err)
			return
		}
		dtos = append(dtos, toCaseDTO(&cases[i], own))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetCase returns a single case.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	c, own, err := h.loadCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Failed to get case", err)
		return
	}

	writeJSON(w, http.StatusOK, toCaseDTO(c, own))
}

// CreateCase creates a case. Initial dates are applied as user edits, so
// dependants are calculated exactly as if typed one by one.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := req.toCase()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if result := h.Engine.ValidateSchema(&c); !result.Valid {
		writeError(w, http.StatusBadRequest, "Invalid case", toValidationDTO(result))
		return
	}

	u, err := h.applyDates(c, generic.Ownership{}, req.Dates)
	if err != nil {
		writeEngineError(w, "Invalid dates", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveCase(ctx, &u.Case); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create case", err)
		return
	}
	if err := h.Store.WriteFields(ctx, u.Case.ID, u.Patch, u.Ownership); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save case dates", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCaseDTO(&u.Case, u.Ownership))
}

// UpdateCase replaces the case header. Dates in the body are ignored.
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	var req CaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	ctx := r.Context()
	existing, own, err := h.loadCase(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Failed to get case", err)
		return
	}

	c := req.toCase()
	c.ID = existing.ID
	c.Dates = existing.Dates
	c.CreatedAt = existing.CreatedAt
	if result := h.Engine.ValidateSchema(&c); !result.Valid {
		writeError(w, http.StatusBadRequest, "Invalid case", toValidationDTO(result))
		return
	}

	if err := h.Store.SaveCase(ctx, &c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update case", err)
		return
	}

	writeJSON(w, http.StatusOK, toCaseDTO(&c, own))
}

// DeleteCase removes a case with its dates, session and alerts.
func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCase(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, "Failed to delete case", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// DATE HANDLERS
// =============================================================================

// UpdateDates applies user edits and persists the resulting patch.
func (h *Handler) UpdateDates(w http.ResponseWriter, r *http.Request) {
	var req UpdateDatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	ctx := r.Context()
	c, own, err := h.loadCase(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Failed to get case", err)
		return
	}

	u, err := h.applyDates(*c, own, req.Dates)
	if err != nil {
		writeEngineError(w, "Invalid dates", err)
		return
	}

	h.persistUpdate(ctx, w, u)
}

// RecalculateDate releases the manual pin of a calculated field and
// recomputes it from its sources.
func (h *Handler) RecalculateDate(w http.ResponseWriter, r *http.Request) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	ctx := r.Context()
	c, own, err := h.loadCase(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Failed to get case", err)
		return
	}

	u, err := h.Engine.Recalculate(*c, own, generic.Field(chi.URLParam(r, "field")))
	if err != nil {
		writeEngineError(w, "Cannot recalculate field", err)
		return
	}

	h.persistUpdate(ctx, w, u)
}

func (h *Handler) persistUpdate(ctx context.Context, w http.ResponseWriter, u perm.Update) {
	if err := h.Store.WriteFields(ctx, u.Case.ID, u.Patch, u.Ownership); err != nil {
		writeEngineError(w, "Failed to save dates", err)
		return
	}

	writeJSON(w, http.StatusOK, DatesUpdateResponse{
		Case:  toCaseDTO(&u.Case, u.Ownership),
		Patch: toDateMap(u.Patch),
	})
}

// =============================================================================
// COMPUTATION HANDLERS
// =============================================================================

// withCase loads the case of the request and hands it to fn.
func (h *Handler) withCase(w http.ResponseWriter, r *http.Request, fn func(c *perm.Case)) {
	c, _, err := h.loadCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Failed to get case", err)
		return
	}
	fn(c)
}

// GetConstraints returns the allowed range of every date field.
func (h *Handler) GetConstraints(w http.ResponseWriter, r *http.Request) {
	h.withCase(w, r, func(c *perm.Case) {
		writeJSON(w, http.StatusOK, toConstraintDTOs(h.Engine.Constraints(c)))
	})
}

// GetFilingWindow returns the ETA 9089 filing window.
func (h *Handler) GetFilingWindow(w http.ResponseWriter, r *http.Request) {
	h.withCase(w, r, func(c *perm.Case) {
		writeJSON(w, http.StatusOK, toFilingWindowDTO(h.Engine.FilingWindow(c)))
	})
}

// GetValidation returns the full validation report.
func (h *Handler) GetValidation(w http.ResponseWriter, r *http.Request) {
	h.withCase(w, r, func(c *perm.Case) {
		writeJSON(w, http.StatusOK, toValidationDTO(h.Engine.Validate(c)))
	})
}

// CheckStatus warns about a status selection that contradicts the dates.
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.withCase(w, r, func(c *perm.Case) {
		check := h.Engine.ValidateStatusSelection(perm.CaseStatus(req.CaseStatus), perm.ProgressStatus(req.ProgressStatus), c)
		writeJSON(w, http.StatusOK, StatusCheckDTO{Valid: check.Valid, Warning: check.Warning})
	})
}

// GetDeadlines returns the open deadlines of a case.
func (h *Handler) GetDeadlines(w http.ResponseWriter, r *http.Request) {
	h.withCase(w, r, func(c *perm.Case) {
		writeJSON(w, http.StatusOK, toDeadlineDTOs(h.Engine.Deadlines(c)))
	})
}

// GetProgress returns the weighted completion of a case.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	h.withCase(w, r, func(c *perm.Case) {
		writeJSON(w, http.StatusOK, toProgressDTO(h.Engine.Progress(c)))
	})
}

// =============================================================================
// SECTION HANDLERS
// =============================================================================

// GetSections returns the state of every section.
func (h *Handler) GetSections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	c, _, err := h.loadCase(ctx, id)
	if err != nil {
		writeEngineError(w, "Failed to get case", err)
		return
	}
	session, err := h.Store.LoadSession(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sections", err)
		return
	}

	writeJSON(w, http.StatusOK, toSectionDTOs(h.Engine.SectionStates(c, session)))
}

// ToggleSection flips the open state of a section.
func (h *Handler) ToggleSection(w http.ResponseWriter, r *http.Request) {
	h.mutateSession(w, r, func(c *perm.Case, s *perm.SectionSession, sec perm.Section) error {
		return h.Engine.ToggleSection(c, s, sec)
	})
}

// OpenSection opens a section.
func (h *Handler) OpenSection(w http.ResponseWriter, r *http.Request) {
	h.mutateSession(w, r, func(_ *perm.Case, s *perm.SectionSession, sec perm.Section) error {
		return s.OpenSection(sec)
	})
}

// CloseSection closes a section.
func (h *Handler) CloseSection(w http.ResponseWriter, r *http.Request) {
	h.mutateSession(w, r, func(_ *perm.Case, s *perm.SectionSession, sec perm.Section) error {
		return s.CloseSection(sec)
	})
}

// EnableOverride force-opens a section whose prerequisites are missing.
func (h *Handler) EnableOverride(w http.ResponseWriter, r *http.Request) {
	h.mutateSession(w, r, func(_ *perm.Case, s *perm.SectionSession, sec perm.Section) error {
		return s.EnableOverride(sec)
	})
}

// DisableOverride undoes EnableOverride.
func (h *Handler) DisableOverride(w http.ResponseWriter, r *http.Request) {
	h.mutateSession(w, r, func(_ *perm.Case, s *perm.SectionSession, sec perm.Section) error {
		return s.DisableOverride(sec)
	})
}

func (h *Handler) mutateSession(w http.ResponseWriter, r *http.Request, fn func(*perm.Case, *perm.SectionSession, perm.Section) error) {
	sec, err := perm.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		writeEngineError(w, "Unknown section", err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	c, _, err := h.loadCase(ctx, id)
	if err != nil {
		writeEngineError(w, "Failed to get case", err)
		return
	}
	session, err := h.Store.LoadSession(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sections", err)
		return
	}

	if err := fn(c, session, sec); err != nil {
		writeEngineError(w, "Failed to update section", err)
		return
	}
	if err := h.Store.SaveSession(ctx, id, session); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save sections", err)
		return
	}

	writeJSON(w, http.StatusOK, toSectionDTOs(h.Engine.SectionStates(c, session)))
}

// =============================================================================
// ALERT AND RULE HANDLERS
// =============================================================================

// ListAlerts returns recorded scheduler alerts, optionally for one case.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Store.ListAlerts(r.Context(), r.URL.Query().Get("case_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}

	resp := AlertsResponse{Alerts: toAlertDTOs(alerts)}
	if h.Scheduler != nil && h.Scheduler.Enabled {
		resp.NextRun = h.Scheduler.GetNextRunTime().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRules returns the active rule set as a complete override document.
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.RuleFactory.ToJSON(h.Engine.Rules()))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	resp := ErrorResponse{Error: message}
	switch d := details.(type) {
	case nil:
	case error:
		resp.Details = d.Error()
	default:
		resp.Details = d
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps sentinel errors to their HTTP status.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Case not found", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
