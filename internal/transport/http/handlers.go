// Package httptransport is the thin HTTP layer. It delegates to the
// workflow facade and verification gate without embedding business logic so
// transport concerns stay isolated.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"candidate-onboarding/internal/audit"
	"candidate-onboarding/internal/candidate/models"
	"candidate-onboarding/internal/workflow"
	"candidate-onboarding/pkg/apperrors"
)

const maxUploadBytes = 10 << 20

// WorkflowService is the facade surface the handlers call.
type WorkflowService interface {
	TransitionStatus(ctx context.Context, id int64, target string) (models.Candidate, error)
	TransitionOnboardingStatus(ctx context.Context, id int64, target string) (models.Candidate, error)
	UpdatePersonalInfo(ctx context.Context, id int64, info workflow.PersonalInfo) (models.Candidate, error)
	UpdateBankInfo(ctx context.Context, id int64, details workflow.BankDetails) (models.BankInfo, error)
	UpdateEducationInfo(ctx context.Context, id int64, details workflow.EducationDetails) (models.Education, error)
	SendOfferNotification(ctx context.Context, id int64) error
	GetCandidate(ctx context.Context, id int64) (models.Candidate, error)
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	ListByStatus(ctx context.Context, status string) ([]models.Candidate, error)
	CountCandidates(ctx context.Context) (int64, error)
}

// VerificationService is the document gate surface the handlers call.
type VerificationService interface {
	Upload(ctx context.Context, candidateID int64, name string, data []byte) (models.Document, error)
	Verify(ctx context.Context, documentID string) (models.Document, error)
}

// EventLister exposes the per-candidate event trail.
type EventLister interface {
	List(ctx context.Context, candidateID int64) ([]audit.Event, error)
}

// Handler handles the candidate endpoints.
type Handler struct {
	workflow WorkflowService
	docs     VerificationService
	events   EventLister
	logger   *zap.Logger
}

func NewHandler(wf WorkflowService, docs VerificationService, events EventLister, logger *zap.Logger) *Handler {
	return &Handler{workflow: wf, docs: docs, events: events, logger: logger}
}

// Register mounts the candidate routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/candidates", func(r chi.Router) {
		r.Get("/all", h.handleListCandidates)
		r.Get("/hired", h.handleListOnboarded)
		r.Get("/onboarded", h.handleListOnboarded)
		r.Get("/count", h.handleCount)
		r.Get("/{id}", h.handleGetCandidate)
		r.Get("/{id}/events", h.handleListEvents)
		r.Post("/{id}/status", h.handleUpdateStatus)
		r.Put("/{id}/onboard-status", h.handleUpdateOnboardingStatus)
		r.Put("/{id}/personal-info", h.handleUpdatePersonalInfo)
		r.Put("/{id}/bank-info", h.handleUpdateBankInfo)
		r.Put("/{id}/educational-info", h.handleUpdateEducationInfo)
		r.Post("/{id}/upload-document", h.handleUploadDocument)
		r.Put("/documents/{documentID}/verify", h.handleVerifyDocument)
		r.Post("/send/{id}", h.handleSendOfferNotification)
	})
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.workflow.ListCandidates(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *Handler) handleListOnboarded(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.workflow.ListByStatus(r.Context(), string(models.StatusOnboarded))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.workflow.CountCandidates(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	candidate, err := h.workflow.GetCandidate(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	events, err := h.events.List(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	candidate, err := h.workflow.TransitionStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

type onboardingStatusUpdateRequest struct {
	OnboardingStatus string `json:"onboardingStatus"`
}

func (h *Handler) handleUpdateOnboardingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	var req onboardingStatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	candidate, err := h.workflow.TransitionOnboardingStatus(r.Context(), id, req.OnboardingStatus)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

type personalInfoRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (h *Handler) handleUpdatePersonalInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	var req personalInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	candidate, err := h.workflow.UpdatePersonalInfo(r.Context(), id, workflow.PersonalInfo{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

type bankInfoRequest struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	IFSCCode      string `json:"ifscCode"`
}

func (h *Handler) handleUpdateBankInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	var req bankInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.workflow.UpdateBankInfo(r.Context(), id, workflow.BankDetails{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		IFSCCode:      req.IFSCCode,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type educationInfoRequest struct {
	HighestDegree    string `json:"highestDegree"`
	University       string `json:"university"`
	YearOfGraduation int    `json:"yearOfGraduation"`
}

func (h *Handler) handleUpdateEducationInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	var req educationInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.workflow.UpdateEducationInfo(r.Context(), id, workflow.EducationDetails{
		HighestDegree:    req.HighestDegree,
		University:       req.University,
		YearOfGraduation: req.YearOfGraduation,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	// Re-read the candidate so uploads to unknown ids 404 before any blob
	// write happens.
	if _, err := h.workflow.GetCandidate(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "missing file field"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, r, apperrors.Wrap(apperrors.CodeInternal, "failed to read upload", err))
		return
	}
	doc, err := h.docs.Upload(r.Context(), id, header.Filename, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")
	doc, err := h.docs.Verify(r.Context(), documentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleSendOfferNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	if err := h.workflow.SendOfferNotification(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "sent"})
}

func (h *Handler) candidateID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, r, apperrors.Newf(apperrors.CodeBadRequest, "invalid candidate id %q", raw))
		return 0, false
	}
	return id, true
}

// writeError centralizes domain error translation to HTTP responses, keeping
// a consistent JSON error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := apperrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	message := ""
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
