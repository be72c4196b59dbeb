package httptransport

import (
	"net/http"

	"pawsport/internal/anchor"
)

func (h *Handler) handleAnchor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SubjectDID    string `json:"subjectDID"`
		IssuerDID     string `json:"issuerDID"`
		Kind          string `json:"kind"`
		RecordHashHex string `json:"recordHashHex"`
		URI           string `json:"uri"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.anchor.Anchor(r.Context(), anchor.AnchorInput{
		SubjectDID: body.SubjectDID,
		IssuerDID:  body.IssuerDID,
		Kind:       body.Kind,
		RecordHash: body.RecordHashHex,
		URI:        body.URI,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptBody{TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber})
}

func (h *Handler) handleIssueMock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VetAddr       string `json:"vetAddr"`
		VetDID        string `json:"vetDID"`
		MetadataURI   string `json:"metadataURI"`
		SubjectDID    string `json:"subjectDID"`
		Kind          string `json:"kind"`
		RecordHashHex string `json:"recordHashHex"`
		URI           string `json:"uri"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.anchor.IssueMock(r.Context(), anchor.IssueMockInput{
		VetAddr:     body.VetAddr,
		VetDID:      body.VetDID,
		MetadataURI: body.MetadataURI,
		SubjectDID:  body.SubjectDID,
		Kind:        body.Kind,
		RecordHash:  body.RecordHashHex,
		URI:         body.URI,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"registered": result.Registered.TxHash,
		"anchored":   result.Anchored.TxHash,
	})
}

func (h *Handler) handleVerifyMock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Issuer        string `json:"issuer"`
		SubjectDID    string `json:"subjectDID"`
		Kind          string `json:"kind"`
		RecordHashHex string `json:"recordHashHex"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.anchor.Verify(r.Context(), anchor.VerifyInput{
		Issuer:     body.Issuer,
		SubjectDID: body.SubjectDID,
		Kind:       body.Kind,
		RecordHash: body.RecordHashHex,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptBody{TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber})
}

func (h *Handler) handleConsentGrant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SubjectDID     string `json:"subjectDID"`
		GranteeDID     string `json:"granteeDID"`
		ConsentHashHex string `json:"consentHashHex"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.consent.Grant(r.Context(), body.SubjectDID, body.GranteeDID, body.ConsentHashHex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptBody{TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber})
}

func (h *Handler) handleConsentRevoke(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SubjectDID string `json:"subjectDID"`
		GranteeDID string `json:"granteeDID"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.consent.Revoke(r.Context(), body.SubjectDID, body.GranteeDID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptBody{TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber})
}

func (h *Handler) handleConsentStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, err := h.consent.Status(r.Context(), q.Get("subjectDID"), q.Get("granteeDID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(state)})
}
