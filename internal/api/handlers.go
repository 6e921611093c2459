package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vc-readiness/internal/catalog"
	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/validation"
	"vc-readiness/internal/evaluation"
)

const maxBodyBytes = 1 << 20

// decode reads the body, checks it against schema and unmarshals it into dst.
func decode(r *http.Request, schema validation.Schema, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return apperrors.NewInvalidRequestError("failed to read request body")
	}
	if len(body) > maxBodyBytes {
		return apperrors.NewInvalidRequestError("request body too large")
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return apperrors.NewInvalidRequestError(fmt.Sprintf("invalid JSON: %v", err))
	}
	result, err := validation.ValidateDocument(doc, schema)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return apperrors.NewInvalidRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.NewInvalidRequestError(fmt.Sprintf("invalid request: %v", err))
	}
	return nil
}

// clientKey is the identity the caller asserts. It can be rotated at will,
// so the guard also charges the origin returned by clientOrigin.
func clientKey(r *http.Request, session evaluation.SessionMetadata) string {
	if session.UserID != "" {
		return "user:" + session.UserID
	}
	if session.CSRFToken != "" {
		return "csrf:" + session.CSRFToken
	}
	if host := clientOrigin(r); host != "" {
		return "ip:" + host
	}
	return ""
}

// clientOrigin is the remote host as seen by the server, after the RealIP
// middleware has applied any proxy headers.
func clientOrigin(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host
}

func (h *Handler) submission(r *http.Request) (evaluation.Request, error) {
	var req submissionRequest
	if err := decode(r, submissionSchema, &req); err != nil {
		return evaluation.Request{}, err
	}
	return evaluation.Request{
		Stage:     catalog.Stage(req.StartupType),
		Answers:   req.FormData,
		Session:   req.SessionMetadata,
		ClientKey: clientKey(r, req.SessionMetadata),
		Origin:    clientOrigin(r),
	}, nil
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	stage, err := catalog.ParseStage(r.URL.Query().Get("stage"))
	if err != nil {
		h.errors.WriteError(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	writeData(w, catalogResponse{StartupType: stage, Sections: h.deps.Catalog.SectionsFor(stage)})
}

func (h *Handler) Completion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := decode(r, completionSchema, &req); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	completion, err := h.deps.Evaluations.Completion(catalog.Stage(req.StartupType), req.FormData)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	writeData(w, completion)
}

// Validate reports missing answers and anti-gaming flags without counting
// the submission against the rate limit.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	req, err := h.submission(r)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	check, err := h.deps.Evaluations.Check(r.Context(), req)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	req, err := h.submission(r)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	result, err := h.deps.Evaluations.Evaluate(r.Context(), req)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	writeData(w, result)
}

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := decode(r, paymentIntentSchema, &req); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	intent, err := h.deps.Premium.CreateIntent(r.Context(), req.EvaluationID)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	writeData(w, intent)
}

func (h *Handler) UnlockPremium(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decode(r, unlockSchema, &req); err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	unlocked, err := h.deps.Premium.Unlock(r.Context(), req.EvaluationID, req.PaymentIntentID)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	writeData(w, unlocked)
}

func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.Evaluations.Get(r.Context(), chi.URLParam(r, "evaluationID"))
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	writeData(w, rec)
}
