package httptransport

import (
	"net/http"

	"pawsport/internal/anchor"
)

func (h *Handler) handleAddEncounter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PetID       string         `json:"petId"`
		VetDID      string         `json:"vetDID"`
		ClinicDID   string         `json:"clinicDID"`
		Reason      string         `json:"reason"`
		Notes       string         `json:"notes"`
		Vitals      map[string]any `json:"vitals"`
		Attachments []any          `json:"attachments"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.anchor.AddEncounter(r.Context(), anchor.EncounterInput{
		PetID:       body.PetID,
		VetDID:      body.VetDID,
		ClinicDID:   body.ClinicDID,
		Reason:      body.Reason,
		Notes:       body.Notes,
		Vitals:      body.Vitals,
		Attachments: body.Attachments,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":     rec.ID,
		"txHash": rec.Receipt.TxHash,
	})
}

func (h *Handler) handleAddVaccine(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PetID       string         `json:"petId"`
		VetAddr     string         `json:"vetAddr"`
		VetDID      string         `json:"vetDID"`
		ClinicDID   string         `json:"clinicDID"`
		Vaccine     map[string]any `json:"vaccine"`
		Attachments []any          `json:"attachments"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.anchor.AddVaccine(r.Context(), anchor.VaccineInput{
		PetID:       body.PetID,
		VetAddr:     body.VetAddr,
		VetDID:      body.VetDID,
		ClinicDID:   body.ClinicDID,
		Vaccine:     body.Vaccine,
		Attachments: body.Attachments,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"id":       rec.ID,
		"anchorTx": rec.AnchorReceipt.TxHash,
	}
	if rec.VerifyReceipt != nil {
		resp["verifyTx"] = rec.VerifyReceipt.TxHash
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAddCredential(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PetID string         `json:"petId"`
		Type  string         `json:"type"`
		Data  map[string]any `json:"data"`
		URI   string         `json:"uri"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	cred, err := h.anchor.AddCredential(r.Context(), anchor.CredentialInput{
		PetID: body.PetID,
		Type:  body.Type,
		Data:  body.Data,
		URI:   body.URI,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"id":            cred.ID,
		"recordHashHex": cred.RecordHash,
	}
	if cred.Receipt != nil {
		resp["anchoredTxHash"] = cred.Receipt.TxHash
	}
	writeJSON(w, http.StatusOK, resp)
}
