package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"VRFOracle/internal/oracle"
	"VRFOracle/internal/snapshot"
	"VRFOracle/internal/storage"
)

// readSigned reads a mutating call, authenticates it and decodes it into dst.
// On failure the response is already written and ok is false.
func (s *Server) readSigned(w http.ResponseWriter, r *http.Request, dst any) (caller oracle.Identity, ok bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read body")
		return caller, false
	}

	caller, err = s.authenticate(r, body)
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeUnauthenticated, err.Error())
		return caller, false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid body: %v", err))
		return caller, false
	}

	return caller, true
}

// handleConfigure handles POST /configure requests.
func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var body ConfigureBody

	caller, ok := s.readSigned(w, r, &body)
	if !ok {
		return
	}

	if err := s.ledger.Configure(caller, body.Authority, body.Fee, body.Authorities); err != nil {
		writeLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleConfigureAsset handles POST /assets requests.
func (s *Server) handleConfigureAsset(w http.ResponseWriter, r *http.Request) {
	var body AssetBody

	caller, ok := s.readSigned(w, r, &body)
	if !ok {
		return
	}

	if err := s.ledger.ConfigureAsset(caller, body.Asset, body.Fee); err != nil {
		writeLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveAsset handles POST /assets/remove requests.
func (s *Server) handleRemoveAsset(w http.ResponseWriter, r *http.Request) {
	var body RemoveAssetBody

	caller, ok := s.readSigned(w, r, &body)
	if !ok {
		return
	}

	if err := s.ledger.RemoveAsset(caller, body.Asset); err != nil {
		writeLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRevoke handles POST /revoke requests.
func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var body Signed

	caller, ok := s.readSigned(w, r, &body)
	if !ok {
		return
	}

	if err := s.ledger.RevokeAuthority(caller); err != nil {
		writeLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleWithdraw handles POST /withdraw requests.
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var body WithdrawBody

	caller, ok := s.readSigned(w, r, &body)
	if !ok {
		return
	}

	if err := s.ledger.WithdrawFees(r.Context(), caller, body.Asset, body.Amount, body.Recipient); err != nil {
		writeLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRequest handles POST /requests requests.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	var body RequestBody

	caller, ok := s.readSigned(w, r, &body)
	if !ok {
		return
	}

	payment := oracle.Payment{Asset: body.Asset, Amount: body.Amount}

	num, err := s.ledger.Request(caller, body.Seed, payment)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RequestResponse{Num: num})
}

// handleFulfill handles POST /fulfill requests.
func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var body FulfillBody

	caller, ok := s.readSigned(w, r, &body)
	if !ok {
		return
	}

	rec, err := s.ledger.Fulfill(caller, body.Seed, body.Signature)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleReset handles POST /reset requests.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var body ResetBody

	caller, ok := s.readSigned(w, r, &body)
	if !ok {
		return
	}

	if err := s.ledger.Reset(caller, body.Seed); err != nil {
		writeLedgerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleAuthority handles GET /authority requests.
func (s *Server) handleAuthority(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GetAuthority())
}

// handleAsset handles GET /asset requests.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AssetResponse{Asset: s.ledger.GetAsset()})
}

// handleAssets handles GET /assets requests.
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GetAssets())
}

// handleFee handles GET /fee/{asset} requests.
func (s *Server) handleFee(w http.ResponseWriter, r *http.Request) {
	asset, err := oracle.ParseAssetID(r.PathValue("asset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	fee, err := s.ledger.GetFee(asset)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FeeResponse{Asset: asset, Fee: fee})
}

// handleBalance handles GET /balance/{asset} requests.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	asset, err := oracle.ParseAssetID(r.PathValue("asset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	balance, err := s.ledger.GetBalance(asset)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{Asset: asset, Balance: balance})
}

// handleAuthorities handles GET /authorities requests.
func (s *Server) handleAuthorities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GetFulfillmentAuthorities())
}

// handleRequestCount handles GET /requests/count requests.
func (s *Server) handleRequestCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CountResponse{Count: s.ledger.GetNumRequests()})
}

// handleRequestBySeed handles GET /requests/seed/{seed} requests.
func (s *Server) handleRequestBySeed(w http.ResponseWriter, r *http.Request) {
	seed, err := oracle.ParseSeed(r.PathValue("seed"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	rec, err := s.ledger.GetRequestBySeed(seed)
	writeRecord(w, rec, err)
}

// handleRequestByNum handles GET /requests/num/{num} requests.
func (s *Server) handleRequestByNum(w http.ResponseWriter, r *http.Request) {
	num, err := strconv.ParseUint(r.PathValue("num"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request number")
		return
	}

	rec, err := s.ledger.GetRequestByNum(num)
	writeRecord(w, rec, err)
}

// writeRecord writes a single lookup result; absent records are 404.
func writeRecord(w http.ResponseWriter, rec *oracle.Randomness, err error) {
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	if rec == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "no such request")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleRequests handles GET /requests?offset&limit requests.
func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	page, err := s.ledger.GetRequests(offset, limit)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleEvents handles GET /events?offset&limit requests.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	events, err := s.ledger.GetEvents(offset, limit)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	if events == nil {
		events = []oracle.Event{}
	}

	writeJSON(w, http.StatusOK, EventsResponse{Count: s.ledger.GetNumEvents(), Events: events})
}

// pageParams parses offset (default 0) and limit (default MaxPageSize).
func pageParams(r *http.Request) (offset, limit uint64, err error) {
	limit = oracle.MaxPageSize
	q := r.URL.Query()

	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.ParseUint(v, 10, 64); err != nil {
			return 0, 0, fmt.Errorf("invalid offset %q", v)
		}
	}

	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.ParseUint(v, 10, 64); err != nil {
			return 0, 0, fmt.Errorf("invalid limit %q", v)
		}
	}

	return offset, limit, nil
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleSnapshot handles GET /snapshot requests with a zstd-compressed
// export of the committed ledger.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var data []byte

	err := s.ledger.View(func(db *storage.Storage) error {
		var err error
		data, err = snapshot.Export(db)
		return err
	})
	if err != nil {
		writeLedgerError(w, fmt.Errorf("export snapshot:\n%w", err))
		return
	}

	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", `attachment; filename="oracle.snapshot.zst"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
