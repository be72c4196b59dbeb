package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/domain"
)

// ContractAddresses holds the deployed registry addresses loaded from the
// deployments file at startup.
type ContractAddresses struct {
	RecordRegistry string `json:"RecordRegistry"`
	VetRegistry    string `json:"VetRegistry"`
	ConsentManager string `json:"ConsentManager"`
	VCValidator    string `json:"VCValidator"`
}

// BridgeClient talks to the ledger bridge, the external service that holds
// signing keys and contract ABIs and submits transactions. The bridge responds
// only after finalization, so a 2xx response always carries a receipt.
//
// Error mapping: transport failures and 503 are unavailable; any other
// non-2xx status is a rejection.
type BridgeClient struct {
	baseURL   string
	apiKey    string
	contracts ContractAddresses
	http      *http.Client
}

func NewBridgeClient(baseURL, apiKey string, contracts ContractAddresses) *BridgeClient {
	return &BridgeClient{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:    apiKey,
		contracts: contracts,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *BridgeClient) AnchorRecord(ctx context.Context, subjectDID, issuerDID, kind, recordHash, uri string) (domain.Receipt, error) {
	if err := checkHash(recordHash); err != nil {
		return domain.Receipt{}, err
	}
	return c.write(ctx, OpAnchorRecord, "/tx/anchor-record", map[string]any{
		"contract":   c.contracts.RecordRegistry,
		"subjectDID": subjectDID,
		"issuerDID":  issuerDID,
		"kind":       kind,
		"recordHash": recordHash,
		"uri":        uri,
	})
}

func (c *BridgeClient) RegisterVet(ctx context.Context, vetAddr, vetDID, metadataURI string) (domain.Receipt, error) {
	return c.write(ctx, OpRegisterVet, "/tx/register-vet", map[string]any{
		"contract":    c.contracts.VetRegistry,
		"vetAddr":     vetAddr,
		"vetDID":      vetDID,
		"metadataURI": metadataURI,
	})
}

func (c *BridgeClient) VerifyMock(ctx context.Context, issuer, subjectDID, kind, recordHash string) (domain.Receipt, error) {
	if err := checkHash(recordHash); err != nil {
		return domain.Receipt{}, err
	}
	return c.write(ctx, OpVerifyMock, "/tx/verify-mock", map[string]any{
		"contract":   c.contracts.VCValidator,
		"issuer":     issuer,
		"subjectDID": subjectDID,
		"kind":       kind,
		"recordHash": recordHash,
	})
}

func (c *BridgeClient) GrantConsent(ctx context.Context, subjectDID, granteeDID, consentHash string) (domain.Receipt, error) {
	if err := checkHash(consentHash); err != nil {
		return domain.Receipt{}, err
	}
	return c.write(ctx, OpGrantConsent, "/tx/grant-consent", map[string]any{
		"contract":    c.contracts.ConsentManager,
		"subjectDID":  subjectDID,
		"granteeDID":  granteeDID,
		"consentHash": consentHash,
	})
}

func (c *BridgeClient) RevokeConsent(ctx context.Context, subjectDID, granteeDID string) (domain.Receipt, error) {
	return c.write(ctx, OpRevokeConsent, "/tx/revoke-consent", map[string]any{
		"contract":   c.contracts.ConsentManager,
		"subjectDID": subjectDID,
		"granteeDID": granteeDID,
	})
}

func (c *BridgeClient) ConsentStatus(ctx context.Context, subjectDID, granteeDID string) (ConsentState, error) {
	q := url.Values{}
	q.Set("contract", c.contracts.ConsentManager)
	q.Set("subjectDID", subjectDID)
	q.Set("granteeDID", granteeDID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/consent/status?"+q.Encode(), nil)
	if err != nil {
		return ConsentNone, opErr(OpConsentStatus, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return ConsentNone, opErr(OpConsentStatus, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ConsentNone, c.statusErr(OpConsentStatus, resp)
	}

	var out struct {
		Status ConsentState `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ConsentNone, opErr(OpConsentStatus, err)
	}
	switch out.Status {
	case ConsentNone, ConsentGranted, ConsentRevoked:
		return out.Status, nil
	default:
		return ConsentNone, opErr(OpConsentStatus, fmt.Errorf("unknown consent status %q", out.Status))
	}
}

func (c *BridgeClient) write(ctx context.Context, op, path string, body map[string]any) (domain.Receipt, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Receipt{}, opErr(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.Receipt{}, opErr(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Receipt{}, opErr(op, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Receipt{}, c.statusErr(op, resp)
	}

	var receipt domain.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return domain.Receipt{}, opErr(op, err)
	}
	if receipt.TxHash == "" {
		// Finalization without a transaction hash is not a receipt.
		return domain.Receipt{}, opErr(op, fmt.Errorf("%w: bridge returned no receipt", sentinel.ErrRejected))
	}
	return receipt, nil
}

func (c *BridgeClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *BridgeClient) statusErr(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode == http.StatusServiceUnavailable {
		return opErr(op, fmt.Errorf("%w: bridge returned 503: %s", sentinel.ErrUnavailable, strings.TrimSpace(string(msg))))
	}
	return opErr(op, fmt.Errorf("%w: bridge returned %d: %s", sentinel.ErrRejected, resp.StatusCode, strings.TrimSpace(string(msg))))
}
