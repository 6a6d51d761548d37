package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/constants"
	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/health"
	"github.com/CMSgov/scrub-app/scrub/models"
	"github.com/CMSgov/scrub-app/scrub/service"
	"github.com/CMSgov/scrub-app/scrub/utils"
)

type Handler struct {
	svc    service.Service
	health health.Checker
}

func NewHandler(svc service.Service, hc health.Checker) *Handler {
	return &Handler{svc: svc, health: hc}
}

type errorResponse struct {
	Error string `json:"error"`
}

type ruleUpdate struct {
	Enabled *bool `json:"enabled"`
}

type batchResponse struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	ClaimCount  int                 `json:"claimCount"`
	Result      *models.BatchResult `json:"result,omitempty"`
	CreatedAt   *time.Time          `json:"createdAt,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
}

func newBatchResponse(b *models.Batch) batchResponse {
	resp := batchResponse{ID: b.ID, Status: b.Status, ClaimCount: b.ClaimCount, Result: b.Result}
	if !b.CreatedAt.IsZero() {
		resp.CreatedAt = &b.CreatedAt
	}
	if !b.CompletedAt.IsZero() {
		resp.CompletedAt = &b.CompletedAt
	}
	return resp
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

// handleError maps a service error onto a response status.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidClaim *scruberrors.InvalidClaimError
		batchSize    *scruberrors.BatchSizeError
		tooLarge     *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.As(err, &invalidClaim):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &batchSize):
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case scruberrors.IsRuleNotFound(err):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAsyncUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
	case scruberrors.IsFatalConfig(err):
		log.WriteErrorWithFields(r.Context(), "Rule catalog rejected", logrus.Fields{"error": err.Error()})
		writeError(w, r, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled):
		log.WriteWarnWithFields(r.Context(), "Request cancelled by client", logrus.Fields{"error": err.Error()})
	default:
		log.WriteErrorWithFields(r.Context(), "Request failed", logrus.Fields{"error": err.Error()})
		writeError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// categories reads the comma separated categories query parameter. It
// reports false after writing a 400 when a category is unknown.
func categories(w http.ResponseWriter, r *http.Request, param string) ([]models.Category, bool) {
	cats, err := models.ParseCategories(utils.SplitNonEmpty(r.URL.Query().Get(param)))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return cats, true
}

/*
	POST /api/v1/claims/$validate

Validates a single claim. The optional categories query parameter restricts
validation to the listed rule categories.
*/
func (h *Handler) validateClaim(w http.ResponseWriter, r *http.Request) {
	cats, ok := categories(w, r, "categories")
	if !ok {
		return
	}

	claim, err := models.DecodeClaim(r.Body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	result, err := h.svc.ValidateClaim(r.Context(), claim, cats)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.SetCtxLogger(r.Context(), "claim_id", result.ClaimID)
	render.JSON(w, r, result)
}

/*
	POST /api/v1/claims/$validate-batch

Validates a list of claims and returns every result in input order.
*/
func (h *Handler) validateBatch(w http.ResponseWriter, r *http.Request) {
	cats, ok := categories(w, r, "categories")
	if !ok {
		return
	}

	claims, err := models.DecodeClaims(r.Body)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.SetCtxLogger(r.Context(), "claim_count", len(claims))

	result, err := h.svc.ValidateBatch(r.Context(), claims, cats)
	if err != nil {
		handleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

/*
	POST /api/v1/batches

Accepts a batch for asynchronous validation and returns its id.
*/
func (h *Handler) submitBatch(w http.ResponseWriter, r *http.Request) {
	cats, ok := categories(w, r, "categories")
	if !ok {
		return
	}

	claims, err := models.DecodeClaims(r.Body)
	if err != nil {
		handleError(w, r, err)
		return
	}

	b, err := h.svc.SubmitBatch(r.Context(), claims, cats)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.SetCtxLogger(r.Context(), "batch_id", b.ID)
	w.Header().Set("Content-Location", constants.V1Path+"batches/"+b.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, newBatchResponse(b))
}

func (h *Handler) getBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	log.SetCtxLogger(r.Context(), "batch_id", batchID)

	b, err := h.svc.GetBatch(r.Context(), batchID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if b == nil {
		writeError(w, r, http.StatusNotFound, constants.NoBatchRecord+batchID)
		return
	}

	render.JSON(w, r, newBatchResponse(b))
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	cats, ok := categories(w, r, "category")
	if !ok {
		return
	}
	render.JSON(w, r, h.svc.ListRules(r.Context(), cats...))
}

func (h *Handler) setRuleEnabled(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleID")
	log.SetCtxLogger(r.Context(), "rule_id", ruleID)

	var body ruleUpdate
	if err := render.DecodeJSON(r.Body, &body); err != nil || body.Enabled == nil {
		writeError(w, r, http.StatusBadRequest, constants.RequestStructErr)
		return
	}

	rule, err := h.svc.SetRuleEnabled(r.Context(), ruleID, *body.Enabled)
	if err != nil {
		handleError(w, r, err)
		return
	}

	render.JSON(w, r, rule)
}

func getVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": constants.Version})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	m := make(map[string]string)

	dbResult, dbOK := h.health.IsDatabaseOK(r.Context())
	eligibilityResult, eligibilityOK := h.health.IsEligibilityOK(r.Context())
	m["database"] = dbResult
	m["eligibility"] = eligibilityResult

	if dbOK && eligibilityOK {
		render.Status(r, http.StatusOK)
	} else {
		render.Status(r, http.StatusBadGateway)
	}
	render.JSON(w, r, m)
}
