/*
handlers.go - HTTP API handlers for the rebate engine

PURPOSE:
  Exposes the rebate evaluation service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to service.Service.

ENDPOINTS:
  Evaluation:
    POST   /api/evaluate                  FarmInput -> ranked program results

  Programs:
    GET    /api/programs                  List programs in evaluation order
    POST   /api/programs                  Create or replace a program
    GET    /api/programs/{id}             Get one program
    DELETE /api/programs/{id}             Remove a program

  Assumptions:
    GET    /api/assumptions               Live table (?format=json|yaml|xlsx)
    PUT    /api/assumptions               Replace table (JSON, or YAML by Content-Type)
    POST   /api/assumptions/import        Replace table from an .xlsx upload

  Scenarios:
    GET    /api/scenarios                 List demo farm inputs
    POST   /api/scenarios/{id}/evaluate   Evaluate a demo farm input

  Admin:
    POST   /api/reset                     Restore default programs and table
    GET    /healthz                       Liveness and config generation

REQUEST FLOW:
  1. Parse HTTP request (schema check for farm inputs)
  2. Call the service (validation, cache, engine)
  3. Serialize response with display rounding
  4. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON {error, code, details}:
  - 400: Schema violations, invalid input, bad program or table config
  - 404: Program or scenario not found
  - 409: Duplicate program
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Program and assumption writes are open to any caller.

SEE ALSO:
  - dto.go: Request/response data structures
  - schema.go: Farm input JSON schema
  - scenarios.go: Demo scenario handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/rebate-engine/assumptions"
	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/service"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 10 << 20
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *service.Service
	Factory *factory.ProgramFactory
	log     *zap.Logger
}

// NewHandler creates a handler over a loaded service.
func NewHandler(svc *service.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Service: svc,
		Factory: factory.NewProgramFactory(),
		log:     log,
	}
}

// =============================================================================
// EVALUATION HANDLERS
// =============================================================================

// Evaluate models spend for a farm input and ranks every program.
// POST /api/evaluate
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	if err := ValidateFarmInputJSON(body); err != nil {
		h.handleError(w, "Invalid request body", err)
		return
	}

	var req FarmInputRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.evaluate(w, r, req)
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, req FarmInputRequest) {
	out, err := h.Service.Evaluate(r.Context(), req.ToFarmInput())
	if err != nil {
		h.handleError(w, "Evaluation failed", err)
		return
	}

	id := uuid.NewString()
	h.log.Info("evaluation served",
		zap.String("evaluation_id", id),
		zap.Int("plans", len(req.Plans)),
		zap.Int("programs", len(out.Results)),
		zap.Bool("cached", out.Cached))

	writeJSON(w, http.StatusOK, NewEvaluationResponse(id, out))
}

// =============================================================================
// PROGRAM HANDLERS
// =============================================================================

// ListPrograms returns registered programs in evaluation order.
// GET /api/programs
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	entries := h.Service.Programs()
	dtos := make([]ProgramDTO, 0, len(entries))
	for _, e := range entries {
		dto, err := toProgramDTO(h.Factory, e)
		if err != nil {
			h.handleError(w, "Failed to serialize program", err)
			return
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProgram returns a single program.
// GET /api/programs/{id}
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Program(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, "Program not found", err)
		return
	}
	dto, err := toProgramDTO(h.Factory, e)
	if err != nil {
		h.handleError(w, "Failed to serialize program", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// SaveProgram creates or replaces a program.
// POST /api/programs
func (h *Handler) SaveProgram(w http.ResponseWriter, r *http.Request) {
	var req SaveProgramRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := http.StatusOK
	if _, err := h.Service.Program(req.ID); engine.IsNotFound(err) {
		status = http.StatusCreated
	}

	e, err := h.Service.SaveProgram(r.Context(), req.toProgramJSON(), req.Position)
	if err != nil {
		h.handleError(w, "Failed to save program", err)
		return
	}
	dto, err := toProgramDTO(h.Factory, e)
	if err != nil {
		h.handleError(w, "Failed to serialize program", err)
		return
	}
	writeJSON(w, status, dto)
}

// DeleteProgram removes a program.
// DELETE /api/programs/{id}
func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProgram(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, "Failed to delete program", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ASSUMPTION HANDLERS
// =============================================================================

// GetAssumptions returns the live assumption table.
// GET /api/assumptions?format=json|yaml|xlsx
func (h *Handler) GetAssumptions(w http.ResponseWriter, r *http.Request) {
	table := h.Service.Assumptions()

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, table)
	case "yaml":
		data, err := assumptions.MarshalYAML(table)
		if err != nil {
			h.handleError(w, "Failed to encode assumptions", err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="assumptions.xlsx"`)
		if err := assumptions.WriteXLSX(table, w); err != nil {
			h.log.Error("failed to write assumptions workbook", zap.Error(err))
		}
	default:
		writeError(w, http.StatusBadRequest, "Unsupported format", fmt.Errorf("format %q must be json, yaml, or xlsx", format))
	}
}

// PutAssumptions replaces the assumption table.
// PUT /api/assumptions
func (h *Handler) PutAssumptions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	var table engine.AssumptionTable
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		table, err = assumptions.LoadYAML(body)
	} else {
		table, err = assumptions.LoadJSON(body)
	}
	if err != nil {
		h.handleError(w, "Invalid assumption table", err)
		return
	}

	h.replaceAssumptions(w, r, table)
}

// ImportAssumptions replaces the assumption table from a spreadsheet.
// POST /api/assumptions/import (multipart: file, optional sheet)
func (h *Handler) ImportAssumptions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	table, err := assumptions.LoadXLSX(file, r.FormValue("sheet"))
	if err != nil {
		h.handleError(w, "Invalid assumption workbook", err)
		return
	}

	h.replaceAssumptions(w, r, table)
}

func (h *Handler) replaceAssumptions(w http.ResponseWriter, r *http.Request, table engine.AssumptionTable) {
	if err := h.Service.SetAssumptions(r.Context(), table); err != nil {
		h.handleError(w, "Failed to save assumptions", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Service.Assumptions())
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Reset restores the default programs and assumption table.
// POST /api/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reset(r.Context()); err != nil {
		h.handleError(w, "Failed to reset configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "reset",
		"programs":   len(h.Service.Programs()),
		"generation": h.Service.Generation(),
	})
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newHealthResponse(len(h.Service.Programs()), h.Service.Generation()))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleError maps service and engine errors to HTTP responses.
func (h *Handler) handleError(w http.ResponseWriter, message string, err error) {
	var schemaErr *SchemaError
	var inputErr *engine.InvalidInputError

	switch {
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   message,
			Code:    "schema_violation",
			Details: schemaErr.Violations,
		})
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: message,
			Code:  "invalid_input",
			Details: map[string]string{
				"field":  inputErr.Field,
				"reason": inputErr.Reason,
			},
		})
	case engine.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: message, Code: "not_found", Details: err.Error()})
	case engine.IsConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: message, Code: "conflict", Details: err.Error()})
	case engine.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_config", Details: err.Error()})
	default:
		h.log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
