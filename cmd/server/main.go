package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"pawsport/pkg/ids"

	"pawsport/internal/anchor"
	"pawsport/internal/audit"
	"pawsport/internal/consent"
	"pawsport/internal/identity"
	"pawsport/internal/ledger"
	"pawsport/internal/platform/config"
	"pawsport/internal/platform/httpserver"
	"pawsport/internal/platform/logger"
	"pawsport/internal/platform/metrics"
	"pawsport/internal/storage"
	httptransport "pawsport/internal/transport/http"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	tracer := otel.Tracer("pawsport")
	idGen := ids.UUID{}

	gateway := ledger.Resolve(ledger.Config{
		Mode:            cfg.LedgerMode,
		BridgeURL:       cfg.LedgerBridgeURL,
		APIKey:          cfg.LedgerAPIKey,
		DeploymentsPath: cfg.DeploymentsPath,
	}, log)

	var auditLog audit.Log
	if cfg.AuditDBPath != "" {
		dbLog, err := audit.OpenLevelDBLog(cfg.AuditDBPath)
		if err != nil {
			log.Error("opening audit database failed", "path", cfg.AuditDBPath, "error", err)
			os.Exit(1)
		}
		defer dbLog.Close()
		auditLog = dbLog
	} else {
		auditLog = audit.NewInMemoryLog()
	}

	owners := storage.NewInMemoryOwnerStore()
	pets := storage.NewInMemoryPetStore()
	consents := storage.NewInMemoryConsentRequestStore()
	appointments := storage.NewInMemoryAppointmentStore()
	encounters := storage.NewInMemoryEncounterStore()
	vaccines := storage.NewInMemoryVaccineStore()
	credentials := storage.NewInMemoryCredentialStore()

	identitySvc := identity.NewService(identity.Deps{
		Owners:          owners,
		Pets:            pets,
		Appointments:    appointments,
		Credentials:     credentials,
		Ledger:          gateway,
		Audit:           auditLog,
		IDs:             idGen,
		Tokens:          identity.NewTokenService(cfg.JWTSigningKey, 24*time.Hour),
		Logger:          log,
		Tracer:          tracer,
		VetAddresses:    cfg.VetAddresses,
		KennelAddresses: cfg.KennelAddresses,
	})
	anchorSvc := anchor.NewService(anchor.Deps{
		Ledger:      gateway,
		Pets:        pets,
		Encounters:  encounters,
		Vaccines:    vaccines,
		Credentials: credentials,
		Audit:       auditLog,
		IDs:         idGen,
		Metrics:     m,
		Logger:      log,
		Tracer:      tracer,
	})
	consentSvc := consent.NewService(consent.Deps{
		Ledger:   gateway,
		Pets:     pets,
		Requests: consents,
		Audit:    auditLog,
		IDs:      idGen,
		Metrics:  m,
		Logger:   log,
		Tracer:   tracer,
	})

	handler := httptransport.NewHandler(identitySvc, anchorSvc, consentSvc, log)
	router := httptransport.NewRouter(handler, registry)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
