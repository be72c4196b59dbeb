package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/domain"
)

// Simulator is an in-process ledger for development and tests. Writes finalize
// immediately with deterministic transaction hashes and monotonically
// increasing block numbers. Consent state transitions are tracked so the
// consent-gated read paths behave like the real contract.
type Simulator struct {
	mu       sync.Mutex
	height   uint64
	consents map[string]ConsentState
}

func NewSimulator() *Simulator {
	return &Simulator{consents: make(map[string]ConsentState)}
}

func (s *Simulator) AnchorRecord(_ context.Context, subjectDID, issuerDID, kind, recordHash, uri string) (domain.Receipt, error) {
	if err := checkHash(recordHash); err != nil {
		return domain.Receipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seal(OpAnchorRecord, subjectDID, issuerDID, kind, recordHash, uri), nil
}

func (s *Simulator) RegisterVet(_ context.Context, vetAddr, vetDID, metadataURI string) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seal(OpRegisterVet, vetAddr, vetDID, metadataURI), nil
}

func (s *Simulator) VerifyMock(_ context.Context, issuer, subjectDID, kind, recordHash string) (domain.Receipt, error) {
	if err := checkHash(recordHash); err != nil {
		return domain.Receipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seal(OpVerifyMock, issuer, subjectDID, kind, recordHash), nil
}

func (s *Simulator) GrantConsent(_ context.Context, subjectDID, granteeDID, consentHash string) (domain.Receipt, error) {
	if err := checkHash(consentHash); err != nil {
		return domain.Receipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consents[consentKey(subjectDID, granteeDID)] = ConsentGranted
	return s.seal(OpGrantConsent, subjectDID, granteeDID, consentHash), nil
}

func (s *Simulator) RevokeConsent(_ context.Context, subjectDID, granteeDID string) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consents[consentKey(subjectDID, granteeDID)] != ConsentGranted {
		return domain.Receipt{}, opErr(OpRevokeConsent, fmt.Errorf("%w: no active grant for grantee", sentinel.ErrRejected))
	}
	s.consents[consentKey(subjectDID, granteeDID)] = ConsentRevoked
	return s.seal(OpRevokeConsent, subjectDID, granteeDID), nil
}

func (s *Simulator) ConsentStatus(_ context.Context, subjectDID, granteeDID string) (ConsentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.consents[consentKey(subjectDID, granteeDID)]; ok {
		return state, nil
	}
	return ConsentNone, nil
}

// seal advances the chain by one block and derives the tx hash from the
// operation arguments plus the block height. Callers must hold s.mu.
func (s *Simulator) seal(parts ...string) domain.Receipt {
	s.height++
	sum := sha256.Sum256([]byte(strings.Join(parts, "|") + "|" + strconv.FormatUint(s.height, 10)))
	return domain.Receipt{
		TxHash:      "0x" + hex.EncodeToString(sum[:]),
		BlockNumber: s.height,
	}
}

func consentKey(subjectDID, granteeDID string) string {
	return subjectDID + "\x00" + granteeDID
}
