package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pawsport/internal/consent"
	"pawsport/internal/domain"
)

func (h *Handler) handleConsentRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PetIDOrHash string `json:"petIdOrHash"`
		VetDID      string `json:"vetDID"`
		ClinicDID   string `json:"clinicDID"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := h.consent.Request(r.Context(), consent.RequestInput{
		PetRef:    body.PetIDOrHash,
		VetDID:    body.VetDID,
		ClinicDID: body.ClinicDID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requestId": req.ID,
		"status":    string(req.Status),
		"notified":  true,
	})
}

func (h *Handler) handleConsentAccept(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequestID string `json:"requestId"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	req, err := h.consent.Accept(r.Context(), body.RequestID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"requestId": req.ID,
		"status":    string(req.Status),
	}
	if req.Receipt != nil {
		resp["txHash"] = req.Receipt.TxHash
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleConsentGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.consent.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consentView(req))
}

func consentView(req domain.ConsentRequest) map[string]any {
	v := map[string]any{
		"requestId":  req.ID,
		"petRef":     req.PetRef,
		"subjectDID": req.SubjectDID,
		"granteeDID": req.GranteeDID,
		"status":     string(req.Status),
		"createdAt":  req.CreatedAt.UnixMilli(),
		"updatedAt":  req.UpdatedAt.UnixMilli(),
	}
	if req.ConsentHash != "" {
		v["consentHashHex"] = req.ConsentHash
	}
	if req.Receipt != nil {
		v["txHash"] = req.Receipt.TxHash
	}
	return v
}
