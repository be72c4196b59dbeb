package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pawsport/internal/anchor"
	"pawsport/internal/consent"
	"pawsport/internal/identity"
	"pawsport/internal/platform/middleware"
)

// Handler bundles the domain services behind the route tree.
type Handler struct {
	identity *identity.Service
	anchor   *anchor.Service
	consent  *consent.Service
	logger   *slog.Logger
}

func NewHandler(identitySvc *identity.Service, anchorSvc *anchor.Service, consentSvc *consent.Service, logger *slog.Logger) *Handler {
	return &Handler{
		identity: identitySvc,
		anchor:   anchorSvc,
		consent:  consentSvc,
		logger:   logger,
	}
}

// NewRouter wires all endpoints behind the shared middleware chain.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Post("/auth/login-email", h.handleLoginEmail)
	r.Post("/auth/wallet-connect", h.handleWalletConnect)

	r.Post("/owners", h.handleUpsertOwner)
	r.Get("/owners/{ownerID}/pets", h.handleListOwnerPets)

	r.Post("/pets", h.handleRegisterPet)
	r.Get("/pets/resolve", h.handleResolveMicrochip)
	r.Get("/pets/{petID}/basic", h.handleBasicProfile)

	r.Get("/pawsport/{petID}", h.handlePawsport)
	r.Get("/verify/{microchip}", h.handlePublicVerify)

	r.Post("/appointments", h.handleCreateAppointment)

	r.Post("/ledger/anchor", h.handleAnchor)
	r.Post("/ledger/vc/issue-mock", h.handleIssueMock)
	r.Post("/ledger/vc/verify-mock", h.handleVerifyMock)
	r.Post("/ledger/consent/grant", h.handleConsentGrant)
	r.Post("/ledger/consent/revoke", h.handleConsentRevoke)
	r.Get("/ledger/consent/status", h.handleConsentStatus)

	r.Post("/consents/request", h.handleConsentRequest)
	r.Post("/consents/accept", h.handleConsentAccept)
	r.Get("/consents/{requestID}", h.handleConsentGet)

	r.Post("/records/encounters", h.handleAddEncounter)
	r.Post("/records/vaccines", h.handleAddVaccine)
	r.Post("/vc/add", h.handleAddCredential)

	return r
}
