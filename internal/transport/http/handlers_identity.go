package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pawsport/internal/identity"
)

func (h *Handler) handleLoginEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.identity.LoginEmail(r.Context(), body.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"sessionToken": session.Token,
		"ownerId":      session.OwnerID,
	})
}

func (h *Handler) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.identity.WalletConnect(body.Address))
}

func (h *Handler) handleUpsertOwner(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	owner, err := h.identity.UpsertOwner(r.Context(), body.Email, body.Name, body.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ownerId": owner.ID})
}

func (h *Handler) handleRegisterPet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OwnerID   string `json:"ownerId"`
		DID       string `json:"did"`
		OwnerDID  string `json:"ownerDID"`
		Name      string `json:"name"`
		Species   string `json:"species"`
		Breed     string `json:"breed"`
		Sex       string `json:"sex"`
		Microchip string `json:"microchip"`
		PhotoURL  string `json:"photoUrl"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	pet, err := h.identity.RegisterPet(r.Context(), identity.RegisterPetInput{
		OwnerID:   body.OwnerID,
		DID:       body.DID,
		OwnerDID:  body.OwnerDID,
		Name:      body.Name,
		Species:   body.Species,
		Breed:     body.Breed,
		Sex:       body.Sex,
		Microchip: body.Microchip,
		PhotoURL:  body.PhotoURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"petId":   pet.ID,
		"petHash": pet.Hash,
		"petDID":  pet.DID,
	})
}

func (h *Handler) handleListOwnerPets(w http.ResponseWriter, r *http.Request) {
	pets, err := h.identity.ListOwnerPets(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, err)
		return
	}
	type item struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		PhotoURL string `json:"photoUrl,omitempty"`
	}
	out := make([]item, 0, len(pets))
	for _, p := range pets {
		out = append(out, item{ID: p.ID, Name: p.Name, PhotoURL: p.PhotoURL})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleResolveMicrochip(w http.ResponseWriter, r *http.Request) {
	pet, err := h.identity.ResolveMicrochip(r.Context(), r.URL.Query().Get("microchip"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":      pet.ID,
		"name":    pet.Name,
		"species": pet.Species,
		"breed":   pet.Breed,
	})
}

func (h *Handler) handleBasicProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	profile, err := h.identity.GetBasicProfile(r.Context(),
		chi.URLParam(r, "petID"), q.Get("scope"), q.Get("granteeDID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handlePawsport(w http.ResponseWriter, r *http.Request) {
	view, err := h.identity.Pawsport(r.Context(), chi.URLParam(r, "petID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handlePublicVerify(w http.ResponseWriter, r *http.Request) {
	view, err := h.identity.PublicVerify(r.Context(), chi.URLParam(r, "microchip"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PetID     string `json:"petId"`
		VetDID    string `json:"vetDID"`
		ClinicDID string `json:"clinicDID"`
		Reason    string `json:"reason"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	appt, err := h.identity.CreateAppointment(r.Context(), identity.AppointmentInput{
		PetID:     body.PetID,
		VetDID:    body.VetDID,
		ClinicDID: body.ClinicDID,
		Reason:    body.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": appt.ID, "ok": true})
}
