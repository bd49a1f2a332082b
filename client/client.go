package client

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"VRFOracle/internal/api"
	"VRFOracle/internal/oracle"
)

// ErrNoWallet is returned by signed calls on a read-only client.
var ErrNoWallet = errors.New("client has no wallet")

// Client talks to an oracle node over its HTTP API.
type Client struct {
	baseURL string       // baseURL is the node endpoint (e.g. "http://127.0.0.1:8080")
	http    *http.Client // http carries every call
	wallet  *Wallet      // wallet signs mutating calls; nil for read-only use
}

// Option customizes a Client.
type Option func(*Client)

// WithWallet makes the client sign calls with w.
func WithWallet(w *Wallet) Option {
	return func(c *Client) { c.wallet = w }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithHTTP3 routes calls over HTTP/3, accepting only the self-signed
// certificate of the node holding nodeKey.
func WithHTTP3(nodeKey ed25519.PublicKey) Option {
	return func(c *Client) {
		c.http = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http3.Transport{
				TLSClientConfig: api.PinnedTLSConfig(nodeKey),
				QUICConfig: &quic.Config{
					MaxIdleTimeout:  60 * time.Second,
					KeepAlivePeriod: 20 * time.Second,
				},
			},
		}
	}
}

// New creates a client for the node at baseURL. A bare host:port is
// treated as plain HTTP.
func New(baseURL string, opts ...Option) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Wallet returns the signing wallet, or nil.
func (c *Client) Wallet() *Wallet {
	return c.wallet
}

// Configure replaces the governing authority, base fee and fulfillment
// authorities.
func (c *Client) Configure(ctx context.Context, authority oracle.Identity, fee uint64, authorities []oracle.Identity) error {
	env, err := c.envelope()
	if err != nil {
		return err
	}

	body := api.ConfigureBody{Signed: env, Authority: authority, Fee: fee, Authorities: authorities}

	return c.postSigned(ctx, "/configure", body, nil)
}

// ConfigureAsset sets the fee of an asset. A fee of zero disables it.
func (c *Client) ConfigureAsset(ctx context.Context, asset oracle.AssetID, fee uint64) error {
	env, err := c.envelope()
	if err != nil {
		return err
	}

	return c.postSigned(ctx, "/assets", api.AssetBody{Signed: env, Asset: asset, Fee: fee}, nil)
}

// RemoveAsset drops a disabled, drained asset from the fee schedule.
func (c *Client) RemoveAsset(ctx context.Context, asset oracle.AssetID) error {
	env, err := c.envelope()
	if err != nil {
		return err
	}

	return c.postSigned(ctx, "/assets/remove", api.RemoveAssetBody{Signed: env, Asset: asset}, nil)
}

// RevokeAuthority renounces governance for good.
func (c *Client) RevokeAuthority(ctx context.Context) error {
	env, err := c.envelope()
	if err != nil {
		return err
	}

	return c.postSigned(ctx, "/revoke", env, nil)
}

// WithdrawFees pays escrowed fees of asset out to recipient.
func (c *Client) WithdrawFees(ctx context.Context, asset oracle.AssetID, amount uint64, recipient oracle.Identity) error {
	env, err := c.envelope()
	if err != nil {
		return err
	}

	body := api.WithdrawBody{Signed: env, Asset: asset, Amount: amount, Recipient: recipient}

	return c.postSigned(ctx, "/withdraw", body, nil)
}

// Request submits a randomness request paying amount of asset and returns
// its sequence number.
func (c *Client) Request(ctx context.Context, seed oracle.Seed, asset oracle.AssetID, amount uint64) (uint64, error) {
	env, err := c.envelope()
	if err != nil {
		return 0, err
	}

	var resp api.RequestResponse

	body := api.RequestBody{Signed: env, Seed: seed, Asset: asset, Amount: amount}
	if err := c.postSigned(ctx, "/requests", body, &resp); err != nil {
		return 0, err
	}

	return resp.Num, nil
}

// FeeAsset picks the asset to pay with: the preferred additional asset when
// it is enabled, the base asset otherwise.
func (c *Client) FeeAsset(ctx context.Context) (oracle.AssetID, uint64, error) {
	asset, err := c.GetAsset(ctx)
	if err != nil {
		return oracle.AssetID{}, 0, err
	}

	fee, err := c.GetFee(ctx, asset)
	if err != nil {
		return oracle.AssetID{}, 0, err
	}

	if asset == oracle.BaseAsset || fee != 0 {
		return asset, fee, nil
	}

	// Additional asset is disabled.
	fee, err = c.GetFee(ctx, oracle.BaseAsset)
	if err != nil {
		return oracle.AssetID{}, 0, err
	}

	return oracle.BaseAsset, fee, nil
}

// RequestWithDefaultAsset pays the exact fee in the asset FeeAsset picks.
func (c *Client) RequestWithDefaultAsset(ctx context.Context, seed oracle.Seed) (uint64, oracle.AssetID, error) {
	asset, fee, err := c.FeeAsset(ctx)
	if err != nil {
		return 0, oracle.AssetID{}, fmt.Errorf("select fee asset:\n%w", err)
	}

	num, err := c.Request(ctx, seed, asset, fee)
	if err != nil {
		return 0, asset, err
	}

	return num, asset, nil
}

// Fulfill signs seed with the wallet key and submits the attestation.
func (c *Client) Fulfill(ctx context.Context, seed oracle.Seed) (*oracle.Randomness, error) {
	env, err := c.envelope()
	if err != nil {
		return nil, err
	}

	var rec oracle.Randomness

	body := api.FulfillBody{Signed: env, Seed: seed, Signature: c.wallet.SignSeed(seed)}
	if err := c.postSigned(ctx, "/fulfill", body, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Reset clears the contributions of an unfulfilled request.
func (c *Client) Reset(ctx context.Context, seed oracle.Seed) error {
	env, err := c.envelope()
	if err != nil {
		return err
	}

	return c.postSigned(ctx, "/reset", api.ResetBody{Signed: env, Seed: seed}, nil)
}

// GetAuthority returns the governing authority.
func (c *Client) GetAuthority(ctx context.Context) (oracle.Owner, error) {
	var owner oracle.Owner
	err := c.get(ctx, "/authority", &owner)
	return owner, err
}

// GetAsset returns the preferred additional asset, or the base asset.
func (c *Client) GetAsset(ctx context.Context) (oracle.AssetID, error) {
	var resp api.AssetResponse
	err := c.get(ctx, "/asset", &resp)
	return resp.Asset, err
}

// GetAssets returns the whole fee schedule.
func (c *Client) GetAssets(ctx context.Context) ([]oracle.AssetFee, error) {
	var schedule []oracle.AssetFee
	err := c.get(ctx, "/assets", &schedule)
	return schedule, err
}

// GetFee returns the configured fee for asset.
func (c *Client) GetFee(ctx context.Context, asset oracle.AssetID) (uint64, error) {
	var resp api.FeeResponse
	err := c.get(ctx, "/fee/"+asset.String(), &resp)
	return resp.Fee, err
}

// GetBalance returns the escrowed fees held for asset.
func (c *Client) GetBalance(ctx context.Context, asset oracle.AssetID) (uint64, error) {
	var resp api.BalanceResponse
	err := c.get(ctx, "/balance/"+asset.String(), &resp)
	return resp.Balance, err
}

// GetFulfillmentAuthorities returns the configured authorities in slot order.
func (c *Client) GetFulfillmentAuthorities(ctx context.Context) ([]oracle.Identity, error) {
	var ids []oracle.Identity
	err := c.get(ctx, "/authorities", &ids)
	return ids, err
}

// GetNumRequests returns the number of accepted requests.
func (c *Client) GetNumRequests(ctx context.Context) (uint64, error) {
	var resp api.CountResponse
	err := c.get(ctx, "/requests/count", &resp)
	return resp.Count, err
}

// GetRequestBySeed returns the request for seed, or nil if there is none.
func (c *Client) GetRequestBySeed(ctx context.Context, seed oracle.Seed) (*oracle.Randomness, error) {
	return c.getRecord(ctx, "/requests/seed/"+seed.String())
}

// GetRequestByNum returns the request numbered num, or nil if there is none.
func (c *Client) GetRequestByNum(ctx context.Context, num uint64) (*oracle.Randomness, error) {
	return c.getRecord(ctx, fmt.Sprintf("/requests/num/%d", num))
}

// getRecord fetches one record, mapping 404 to nil.
func (c *Client) getRecord(ctx context.Context, path string) (*oracle.Randomness, error) {
	var rec oracle.Randomness

	err := c.get(ctx, path, &rec)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == api.CodeNotFound {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// GetRequests returns a page of requests; numbers without a request are nil.
func (c *Client) GetRequests(ctx context.Context, offset, limit uint64) ([]*oracle.Randomness, error) {
	var page []*oracle.Randomness
	err := c.get(ctx, fmt.Sprintf("/requests?offset=%d&limit=%d", offset, limit), &page)
	return page, err
}

// GetEvents returns a page of the event log and its total length.
func (c *Client) GetEvents(ctx context.Context, offset, limit uint64) ([]oracle.Event, uint64, error) {
	var resp api.EventsResponse
	err := c.get(ctx, fmt.Sprintf("/events?offset=%d&limit=%d", offset, limit), &resp)
	return resp.Events, resp.Count, err
}

// Health checks that the node is serving.
func (c *Client) Health(ctx context.Context) error {
	var resp map[string]string
	return c.get(ctx, "/health", &resp)
}

// Snapshot downloads a compressed snapshot of the node's ledger.
func (c *Client) Snapshot(ctx context.Context) ([]byte, error) {
	var data []byte
	err := c.get(ctx, "/snapshot", &data)
	return data, err
}

// WaitFulfilled polls the request for seed every interval until it is
// fulfilled or ctx is done.
func (c *Client) WaitFulfilled(ctx context.Context, seed oracle.Seed, interval time.Duration) (*oracle.Randomness, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		rec, err := c.GetRequestBySeed(ctx, seed)
		if err != nil {
			return nil, err
		}

		if rec == nil {
			return nil, oracle.ErrUnknownRequest
		}

		if rec.State == oracle.Fulfilled {
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
