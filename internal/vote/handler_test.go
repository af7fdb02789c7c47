package vote

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/audit"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/platform/middleware"
)

type fakeValidator struct {
	claims map[string]*middleware.JWTClaims
}

func (f *fakeValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	claims, ok := f.claims[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// settableLedger wraps a chain with a configurable contract address.
type settableLedger struct {
	ledger.Client
	addr string
}

func (s *settableLedger) SetContractAddress(addr string) { s.addr = addr }

func newTestRouter(t *testing.T, ledgerClient ledger.Client) (*chi.Mux, *MemoryStore) {
	t.Helper()
	svc, store, _ := newFixture(ledgerClient)
	validator := &fakeValidator{claims: map[string]*middleware.JWTClaims{
		"voter-token": {UserID: testVoter, Role: RoleVoter},
		"admin-token": {UserID: "admin-1", Role: RoleAdmin},
	}}
	h := NewHandler(svc, ledgerClient, audit.NewMemorySink(), validator, testLogger())
	r := chi.NewRouter()
	h.Register(r)
	return r, store
}

func doRequest(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCastVotesEndpointRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t, testChain())
	rec := doRequest(r, http.MethodPost, "/votes", "", `[{"electionId":"election-1","candidateId":"cand-pres"}]`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCastVotesEndpointRequiresVoterRole(t *testing.T) {
	r, _ := newTestRouter(t, testChain())
	rec := doRequest(r, http.MethodPost, "/votes", "admin-token", `[{"electionId":"election-1","candidateId":"cand-pres"}]`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCastVotesEndpointSuccess(t *testing.T) {
	r, store := newTestRouter(t, testChain())
	rec := doRequest(r, http.MethodPost, "/votes", "voter-token", `[{"electionId":"election-1","candidateId":"cand-pres"}]`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Votes cast successfully")
	assert.Contains(t, rec.Body.String(), "voteId")
	assert.Len(t, store.All(), 1)
}

func TestCastVotesEndpointRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t, testChain())
	rec := doRequest(r, http.MethodPost, "/votes", "voter-token", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCastVotesEndpointDuplicateIsBadRequest(t *testing.T) {
	r, _ := newTestRouter(t, testChain())
	body := `[{"electionId":"election-1","candidateId":"cand-pres"}]`

	rec := doRequest(r, http.MethodPost, "/votes", "voter-token", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(r, http.MethodPost, "/votes", "voter-token", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Already voted")
}

func TestCastVotesEndpointIneligibleIsForbidden(t *testing.T) {
	r, _ := newTestRouter(t, testChain())
	rec := doRequest(r, http.MethodPost, "/votes", "voter-token", `[{"electionId":"election-1","candidateId":"cand-far"}]`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not eligible")
}

func TestCastVotesEndpointUnknownCandidateIsNotFound(t *testing.T) {
	r, _ := newTestRouter(t, testChain())
	rec := doRequest(r, http.MethodPost, "/votes", "voter-token", `[{"electionId":"election-1","candidateId":"cand-ghost"}]`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockchainStatusEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, testChain())
	rec := doRequest(r, http.MethodGet, "/votes/blockchain/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isConnected":true`)
}

func TestBlockchainSetupEndpoint(t *testing.T) {
	settable := &settableLedger{Client: testChain()}
	r, _ := newTestRouter(t, settable)

	rec := doRequest(r, http.MethodPost, "/votes/blockchain/setup", "voter-token", `{"contractAddress":"0xabc"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code, "setup is admin-only")

	rec = doRequest(r, http.MethodPost, "/votes/blockchain/setup", "admin-token", `{"contractAddress":"0xabc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0xabc", settable.addr)

	rec = doRequest(r, http.MethodPost, "/votes/blockchain/setup", "admin-token", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockchainSetupUnsupportedBackend(t *testing.T) {
	r, _ := newTestRouter(t, testChain())
	rec := doRequest(r, http.MethodPost, "/votes/blockchain/setup", "admin-token", `{"contractAddress":"0xabc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
