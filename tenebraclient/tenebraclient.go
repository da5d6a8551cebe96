// Package tenebraclient provides a typed client for the tenebra JSON API.
package tenebraclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tenebra-network/gtenebra/types"
)

// maxResponseSize bounds how much of a response body is read. The
// largest legitimate payload is a full page of transactions.
const maxResponseSize = 8 << 20

// Client defines typed wrappers for the tenebra JSON API.
type Client struct {
	base string
	hc   *http.Client
}

// APIError is a decoded error envelope from the node. Kind carries the
// wire error string, Param the offending parameter when the node names
// one.
type APIError struct {
	Kind   string
	Param  string
	Status int
}

func (e *APIError) Error() string {
	if e.Param != "" {
		return "tenebraclient: " + e.Kind + " (" + e.Param + ")"
	}
	return "tenebraclient: " + e.Kind
}

// IsNotFound reports whether err is the node answering that the
// requested row does not exist.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Dial connects a client to the given base URL.
func Dial(rawurl string) (*Client, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return NewClient(rawurl, nil), nil
}

// NewClient creates a client against baseURL that uses the given HTTP
// client. A nil httpClient falls back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: httpClient}
}

func (tc *Client) Close() {
	tc.hc.CloseIdleConnections()
}

func (tc *Client) call(ctx context.Context, method, path string, params map[string]interface{}, result interface{}) error {
	var body io.Reader
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, tc.base+path, body)
	if err != nil {
		return err
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := tc.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	var envelope struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		Param string `json:"parameter"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("malformed response for %s: %v", path, err)
	}
	if !envelope.OK {
		return &APIError{Kind: envelope.Error, Param: envelope.Param, Status: resp.StatusCode}
	}
	if result != nil {
		return json.Unmarshal(raw, result)
	}
	return nil
}

func (tc *Client) get(ctx context.Context, path string, result interface{}) error {
	return tc.call(ctx, http.MethodGet, path, nil, result)
}

func (tc *Client) post(ctx context.Context, path string, params map[string]interface{}, result interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	return tc.call(ctx, http.MethodPost, path, params, result)
}

// listQuery renders pagination parameters, omitting zeroes so the node
// applies its defaults.
func listQuery(limit, offset uint64) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.FormatUint(limit, 10))
	}
	if offset > 0 {
		q.Set("offset", strconv.FormatUint(offset, 10))
	}
	return q
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// Node status

// MOTD is the aggregated node status payload served on the homepage and
// as the websocket hello message.
type MOTD struct {
	ServerTime     time.Time        `json:"server_time"`
	MOTD           string           `json:"motd"`
	PublicURL      string           `json:"public_url"`
	DebugMode      bool             `json:"debug_mode"`
	Work           uint64           `json:"work"`
	MiningEnabled  bool             `json:"mining_enabled"`
	StakingEnabled bool             `json:"staking_enabled"`
	LastBlock      *types.BlockView `json:"last_block"`
	Constants      ChainConstants   `json:"constants"`
}

// ChainConstants mirrors the constants block of the motd payload.
type ChainConstants struct {
	WalletVersion    uint64  `json:"wallet_version"`
	NonceMaxSize     uint64  `json:"nonce_max_size"`
	NameCost         uint64  `json:"name_cost"`
	MinWork          uint64  `json:"min_work"`
	MaxWork          uint64  `json:"max_work"`
	WorkFactor       float64 `json:"work_factor"`
	SecondsPerBlock  uint64  `json:"seconds_per_block"`
	ValidatorPenalty uint64  `json:"validator_penalty"`
	AddressPrefix    string  `json:"address_prefix"`
	NameSuffix       string  `json:"name_suffix"`
}

// DetailedWork is the current work target plus the value breakdown of
// the next block.
type DetailedWork struct {
	Work       uint64 `json:"work"`
	Unpaid     uint64 `json:"unpaid"`
	BaseValue  uint64 `json:"base_value"`
	BlockValue uint64 `json:"block_value"`

	Decrease struct {
		Value  uint64 `json:"value"`
		Blocks uint64 `json:"blocks"`
		Reset  uint64 `json:"reset"`
	} `json:"decrease"`
}

// GetMOTD returns the node status payload.
func (tc *Client) GetMOTD(ctx context.Context) (*MOTD, error) {
	var out MOTD
	if err := tc.get(ctx, "/motd", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Supply returns the total circulating currency.
func (tc *Client) Supply(ctx context.Context) (uint64, error) {
	var out struct {
		Supply uint64 `json:"supply"`
	}
	err := tc.get(ctx, "/supply", &out)
	return out.Supply, err
}

// CurrentWork returns the work value mining solutions are checked
// against.
func (tc *Client) CurrentWork(ctx context.Context) (uint64, error) {
	var out struct {
		Work uint64 `json:"work"`
	}
	err := tc.get(ctx, "/work", &out)
	return out.Work, err
}

// DetailedWork returns the full work state.
func (tc *Client) DetailedWork(ctx context.Context) (*DetailedWork, error) {
	var out DetailedWork
	if err := tc.get(ctx, "/work/detailed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login checks a private key against the ledger. A false answer means
// the key does not control the address it derives to.
func (tc *Client) Login(ctx context.Context, privatekey string) (address string, authed bool, err error) {
	var out struct {
		Authed  bool   `json:"authed"`
		Address string `json:"address"`
	}
	err = tc.post(ctx, "/login", map[string]interface{}{"privatekey": privatekey}, &out)
	return out.Address, out.Authed, err
}

// Addresses

// GetAddress returns one address row. With fetchNames the owned name
// count is attached.
func (tc *Client) GetAddress(ctx context.Context, address string, fetchNames bool) (*types.AddressView, error) {
	path := "/addresses/" + url.PathEscape(address)
	if fetchNames {
		path += "?fetchNames"
	}
	var out struct {
		Address *types.AddressView `json:"address"`
	}
	if err := tc.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Address, nil
}

// Addresses returns a page of addresses plus the overall total.
func (tc *Client) Addresses(ctx context.Context, limit, offset uint64) ([]*types.AddressView, uint64, error) {
	var out struct {
		Addresses []*types.AddressView `json:"addresses"`
		Total     uint64               `json:"total"`
	}
	err := tc.get(ctx, withQuery("/addresses", listQuery(limit, offset)), &out)
	return out.Addresses, out.Total, err
}

// RichAddresses returns a page of addresses ordered by balance.
func (tc *Client) RichAddresses(ctx context.Context, limit, offset uint64) ([]*types.AddressView, uint64, error) {
	var out struct {
		Addresses []*types.AddressView `json:"addresses"`
		Total     uint64               `json:"total"`
	}
	err := tc.get(ctx, withQuery("/addresses/rich", listQuery(limit, offset)), &out)
	return out.Addresses, out.Total, err
}

// AddressNames returns a page of the names an address owns.
func (tc *Client) AddressNames(ctx context.Context, address string, limit, offset uint64) ([]*types.NameView, uint64, error) {
	var out struct {
		Names []*types.NameView `json:"names"`
		Total uint64            `json:"total"`
	}
	path := "/addresses/" + url.PathEscape(address) + "/names"
	err := tc.get(ctx, withQuery(path, listQuery(limit, offset)), &out)
	return out.Names, out.Total, err
}

// AddressTransactions returns a page of the transactions an address
// took part in.
func (tc *Client) AddressTransactions(ctx context.Context, address string, limit, offset uint64, excludeMined bool) ([]*types.TransactionView, uint64, error) {
	var out struct {
		Transactions []*types.TransactionView `json:"transactions"`
		Total        uint64                   `json:"total"`
	}
	q := listQuery(limit, offset)
	if excludeMined {
		q.Set("excludeMined", "true")
	}
	path := "/addresses/" + url.PathEscape(address) + "/transactions"
	err := tc.get(ctx, withQuery(path, q), &out)
	return out.Transactions, out.Total, err
}

// Blocks

// Blocks returns a page of blocks, newest first, plus the chain height.
func (tc *Client) Blocks(ctx context.Context, limit, offset uint64) ([]*types.BlockView, uint64, error) {
	var out struct {
		Blocks []*types.BlockView `json:"blocks"`
		Total  uint64             `json:"total"`
	}
	err := tc.get(ctx, withQuery("/blocks", listQuery(limit, offset)), &out)
	return out.Blocks, out.Total, err
}

// GetBlock returns the block at the given height.
func (tc *Client) GetBlock(ctx context.Context, height uint64) (*types.BlockView, error) {
	return tc.block(ctx, "/blocks/"+strconv.FormatUint(height, 10))
}

// LastBlock returns the chain head.
func (tc *Client) LastBlock(ctx context.Context) (*types.BlockView, error) {
	return tc.block(ctx, "/blocks/last")
}

// LowestHashBlock returns the block whose hash compares lowest.
func (tc *Client) LowestHashBlock(ctx context.Context) (*types.BlockView, error) {
	return tc.block(ctx, "/blocks/lowest")
}

func (tc *Client) block(ctx context.Context, path string) (*types.BlockView, error) {
	var out struct {
		Block *types.BlockView `json:"block"`
	}
	if err := tc.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Block, nil
}

// SubmitBlock submits a mining solution for the given address. On
// success it returns the accepted block and the new work value.
func (tc *Client) SubmitBlock(ctx context.Context, address string, nonce []byte) (*types.BlockView, uint64, error) {
	// The nonce goes over as an array of byte values; encoding/json
	// would base64 a []byte and change the solution.
	arr := make([]int, len(nonce))
	for i, b := range nonce {
		arr[i] = int(b)
	}
	var out struct {
		Block *types.BlockView `json:"block"`
		Work  uint64           `json:"work"`
	}
	err := tc.post(ctx, "/submit_block", map[string]interface{}{
		"address": address,
		"nonce":   arr,
	}, &out)
	if err != nil {
		return nil, 0, err
	}
	return out.Block, out.Work, nil
}

// Transactions

// Transactions returns a page of transactions, oldest first, plus the
// overall total.
func (tc *Client) Transactions(ctx context.Context, limit, offset uint64, excludeMined bool) ([]*types.TransactionView, uint64, error) {
	return tc.transactions(ctx, "/transactions", limit, offset, excludeMined)
}

// LatestTransactions returns a page of transactions, newest first.
func (tc *Client) LatestTransactions(ctx context.Context, limit, offset uint64, excludeMined bool) ([]*types.TransactionView, uint64, error) {
	return tc.transactions(ctx, "/transactions/latest", limit, offset, excludeMined)
}

func (tc *Client) transactions(ctx context.Context, path string, limit, offset uint64, excludeMined bool) ([]*types.TransactionView, uint64, error) {
	var out struct {
		Transactions []*types.TransactionView `json:"transactions"`
		Total        uint64                   `json:"total"`
	}
	q := listQuery(limit, offset)
	if excludeMined {
		q.Set("excludeMined", "true")
	}
	err := tc.get(ctx, withQuery(path, q), &out)
	return out.Transactions, out.Total, err
}

// GetTransaction returns one transaction by log index.
func (tc *Client) GetTransaction(ctx context.Context, id uint64) (*types.TransactionView, error) {
	var out struct {
		Transaction *types.TransactionView `json:"transaction"`
	}
	if err := tc.get(ctx, "/transactions/"+strconv.FormatUint(id, 10), &out); err != nil {
		return nil, err
	}
	return out.Transaction, nil
}

// MakeTransaction sends amount from the key's address to a recipient
// address or name.
func (tc *Client) MakeTransaction(ctx context.Context, privatekey, to string, amount uint64, metadata string) (*types.TransactionView, error) {
	params := map[string]interface{}{
		"privatekey": privatekey,
		"to":         to,
		"amount":     amount,
	}
	if metadata != "" {
		params["metadata"] = metadata
	}
	var out struct {
		Transaction *types.TransactionView `json:"transaction"`
	}
	if err := tc.post(ctx, "/transactions", params, &out); err != nil {
		return nil, err
	}
	return out.Transaction, nil
}

// Names

// Names returns a page of names, name ordered, plus the overall total.
func (tc *Client) Names(ctx context.Context, limit, offset uint64) ([]*types.NameView, uint64, error) {
	return tc.names(ctx, "/names", limit, offset)
}

// NewestNames returns a page of names, newest registration first.
func (tc *Client) NewestNames(ctx context.Context, limit, offset uint64) ([]*types.NameView, uint64, error) {
	return tc.names(ctx, "/names/new", limit, offset)
}

func (tc *Client) names(ctx context.Context, path string, limit, offset uint64) ([]*types.NameView, uint64, error) {
	var out struct {
		Names []*types.NameView `json:"names"`
		Total uint64            `json:"total"`
	}
	err := tc.get(ctx, withQuery(path, listQuery(limit, offset)), &out)
	return out.Names, out.Total, err
}

// GetName returns one name row.
func (tc *Client) GetName(ctx context.Context, name string) (*types.NameView, error) {
	var out struct {
		Name *types.NameView `json:"name"`
	}
	if err := tc.get(ctx, "/names/"+url.PathEscape(name), &out); err != nil {
		return nil, err
	}
	return out.Name, nil
}

// NameCost returns the purchase price of a name.
func (tc *Client) NameCost(ctx context.Context) (uint64, error) {
	var out struct {
		NameCost uint64 `json:"name_cost"`
	}
	err := tc.get(ctx, "/names/cost", &out)
	return out.NameCost, err
}

// NameBonus returns the count of names bought in the last day.
func (tc *Client) NameBonus(ctx context.Context) (uint64, error) {
	var out struct {
		NameBonus uint64 `json:"name_bonus"`
	}
	err := tc.get(ctx, "/names/bonus", &out)
	return out.NameBonus, err
}

// NameAvailable reports whether a name is still free to purchase.
func (tc *Client) NameAvailable(ctx context.Context, name string) (bool, error) {
	var out struct {
		Available bool `json:"available"`
	}
	err := tc.get(ctx, "/names/check/"+url.PathEscape(name), &out)
	return out.Available, err
}

// PurchaseName buys a free name for the key's address.
func (tc *Client) PurchaseName(ctx context.Context, privatekey, name string) (*types.NameView, error) {
	return tc.nameOp(ctx, "/names/"+url.PathEscape(name), map[string]interface{}{
		"privatekey": privatekey,
	})
}

// TransferName moves a name the key owns to another address.
func (tc *Client) TransferName(ctx context.Context, privatekey, name, address string) (*types.NameView, error) {
	return tc.nameOp(ctx, "/names/"+url.PathEscape(name)+"/transfer", map[string]interface{}{
		"privatekey": privatekey,
		"address":    address,
	})
}

// UpdateName sets the A record of a name the key owns. An empty record
// clears it.
func (tc *Client) UpdateName(ctx context.Context, privatekey, name, a string) (*types.NameView, error) {
	params := map[string]interface{}{"privatekey": privatekey}
	if a != "" {
		params["a"] = a
	}
	return tc.nameOp(ctx, "/names/"+url.PathEscape(name)+"/update", params)
}

func (tc *Client) nameOp(ctx context.Context, path string, params map[string]interface{}) (*types.NameView, error) {
	var out struct {
		Name *types.NameView `json:"name"`
	}
	if err := tc.post(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return out.Name, nil
}

// Staking

// Stakes returns a page of stakes plus the overall staker count.
func (tc *Client) Stakes(ctx context.Context, limit, offset uint64) ([]*types.Stake, uint64, error) {
	var out struct {
		Stakes []*types.Stake `json:"stakes"`
		Total  uint64         `json:"total"`
	}
	err := tc.get(ctx, withQuery("/staking", listQuery(limit, offset)), &out)
	return out.Stakes, out.Total, err
}

// GetStake returns the stake held by one address.
func (tc *Client) GetStake(ctx context.Context, address string) (*types.Stake, error) {
	var out struct {
		Stake *types.Stake `json:"stake"`
	}
	if err := tc.get(ctx, "/staking/"+url.PathEscape(address), &out); err != nil {
		return nil, err
	}
	return out.Stake, nil
}

// Validator returns the address elected for the current slot, empty
// when none is.
func (tc *Client) Validator(ctx context.Context) (string, error) {
	var out struct {
		Validator string `json:"validator"`
	}
	err := tc.get(ctx, "/staking/validator", &out)
	return out.Validator, err
}

// Penalties returns every address still paying off a validator
// penalty.
func (tc *Client) Penalties(ctx context.Context) ([]*types.Penalty, error) {
	var out struct {
		Penalties []*types.Penalty `json:"penalties"`
	}
	if err := tc.get(ctx, "/staking/penalties", &out); err != nil {
		return nil, err
	}
	return out.Penalties, nil
}

// DepositStake moves amount from the key's balance into stake.
func (tc *Client) DepositStake(ctx context.Context, privatekey string, amount uint64) (*types.Stake, error) {
	return tc.stakeOp(ctx, "/staking", privatekey, amount)
}

// WithdrawStake moves amount of stake back into the key's balance.
func (tc *Client) WithdrawStake(ctx context.Context, privatekey string, amount uint64) (*types.Stake, error) {
	return tc.stakeOp(ctx, "/staking/withdraw", privatekey, amount)
}

func (tc *Client) stakeOp(ctx context.Context, path, privatekey string, amount uint64) (*types.Stake, error) {
	var out struct {
		Stake *types.Stake `json:"stake"`
	}
	err := tc.post(ctx, path, map[string]interface{}{
		"privatekey": privatekey,
		"amount":     amount,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Stake, nil
}

// Websockets

// StartWebsocket requests a single use websocket gateway URL. With a
// private key the session starts authenticated as that address.
func (tc *Client) StartWebsocket(ctx context.Context, privatekey string) (gateway string, expires int, err error) {
	params := map[string]interface{}{}
	if privatekey != "" {
		params["privatekey"] = privatekey
	}
	var out struct {
		URL     string `json:"url"`
		Expires int    `json:"expires"`
	}
	err = tc.post(ctx, "/ws/start", params, &out)
	return out.URL, out.Expires, err
}
