package runs

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/services/planner"
	"gitlab.com/codemark.net/internal/core/services/results"
	"gitlab.com/codemark.net/internal/handlers"
	"gitlab.com/codemark.net/internal/static/errs"
)

// RunHandler handles run and result API requests
type RunHandler struct {
	plannerService planner.IPlannerService
	resultService  results.IResultService
	logger         primary.Logger
}

func NewRunHandler(plannerService planner.IPlannerService, resultService results.IResultService, logger primary.Logger) *RunHandler {
	return &RunHandler{
		plannerService: plannerService,
		resultService:  resultService,
		logger:         logger,
	}
}

// RegisterRoutes registers the API routes for RunHandler on an authenticated router
func (h *RunHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/submissions/{submissionId}/runs", h.TriggerRun).Methods("POST")
	router.HandleFunc("/api/classes/{classId}/assignments/{assignmentId}/runs", h.RerunAssignment).Methods("POST")
	router.HandleFunc("/api/submissions/{submissionId}/results", h.ListResults).Methods("GET")
	router.HandleFunc("/api/submissions/{submissionId}/results/latest", h.LatestResult).Methods("GET")
}

// TriggerRun queues a new grading run of one submission. The submitter may
// request the first run only; re-runs are reserved to instructors.
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	viewer, ok := handlers.ViewerFromContext(r.Context())
	if !ok {
		handlers.ResponseError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	submissionID, ok := pathID(w, r, "submissionId")
	if !ok {
		return
	}

	instructor, err := h.resultService.AuthorizeSubmission(r.Context(), viewer, submissionID)
	if err != nil {
		handlers.ResponseServiceError(w, err)
		return
	}
	if !instructor {
		_, err := h.resultService.Latest(r.Context(), viewer, submissionID)
		switch {
		case err == nil:
			handlers.ResponseServiceError(w, errs.ErrForbidden)
			return
		case !errors.Is(err, errs.ErrNotFound):
			handlers.ResponseServiceError(w, err)
			return
		}
	}

	result, err := h.plannerService.TriggerRun(r.Context(), submissionID)
	if err != nil {
		h.logger.Error("Failed to trigger run", "submissionId", submissionID, "error", err)
		handlers.ResponseServiceError(w, err)
		return
	}

	handlers.ResponseWithJson(w, http.StatusAccepted, TriggerRunResponse{
		ResultID:     result.ID,
		SubmissionID: result.SubmissionID,
		CreatedAt:    result.CreatedAt,
	})
}

// RerunAssignment queues a run for every submission of an assignment in a class
func (h *RunHandler) RerunAssignment(w http.ResponseWriter, r *http.Request) {
	viewer, ok := handlers.ViewerFromContext(r.Context())
	if !ok {
		handlers.ResponseError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	classID, ok := pathID(w, r, "classId")
	if !ok {
		return
	}
	assignmentID, ok := pathID(w, r, "assignmentId")
	if !ok {
		return
	}

	if err := h.resultService.AuthorizeClass(r.Context(), viewer, classID); err != nil {
		handlers.ResponseServiceError(w, err)
		return
	}

	queued, err := h.plannerService.RerunAssignment(r.Context(), classID, assignmentID)
	resp := RerunResponse{Queued: queued}
	if err != nil {
		h.logger.Error("Failed to rerun some submissions", "assignmentId", assignmentID, "error", err)
		if queued == 0 {
			handlers.ResponseServiceError(w, err)
			return
		}
		resp.Error = err.Error()
	}

	handlers.ResponseWithJson(w, http.StatusAccepted, resp)
}

// ListResults returns every result of a submission, newest first
func (h *RunHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	viewer, ok := handlers.ViewerFromContext(r.Context())
	if !ok {
		handlers.ResponseError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	submissionID, ok := pathID(w, r, "submissionId")
	if !ok {
		return
	}

	views, err := h.resultService.History(r.Context(), viewer, submissionID)
	if err != nil {
		handlers.ResponseServiceError(w, err)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, views)
}

// LatestResult returns the newest result of a submission
func (h *RunHandler) LatestResult(w http.ResponseWriter, r *http.Request) {
	viewer, ok := handlers.ViewerFromContext(r.Context())
	if !ok {
		handlers.ResponseError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	submissionID, ok := pathID(w, r, "submissionId")
	if !ok {
		return
	}

	view, err := h.resultService.Latest(r.Context(), viewer, submissionID)
	if err != nil {
		handlers.ResponseServiceError(w, err)
		return
	}
	handlers.ResponseWithJson(w, http.StatusOK, view)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		handlers.ResponseError(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
