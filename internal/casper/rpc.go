package casper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultRPCURL is the public testnet node.
const DefaultRPCURL = "https://rpc.testnet.casperlabs.io/rpc"

// motesPerCSPR is the number of motes in one CSPR.
const motesPerCSPR = 1_000_000_000

// ErrNoPurse is returned when the account has no main purse on chain.
var ErrNoPurse = errors.New("account has no main purse")

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client queries balances from a Casper node over JSON-RPC.
type Client struct {
	url    string
	http   *http.Client
	nextID atomic.Int64
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultRPCURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Balance returns the main purse balance of the account in motes.
func (c *Client) Balance(ctx context.Context, publicKeyHex string) (*big.Int, error) {
	key, err := ParsePublicKey(publicKeyHex)
	if err != nil {
		return nil, err
	}

	var root struct {
		StateRootHash string `json:"state_root_hash"`
	}
	if err := c.call(ctx, "chain_get_state_root_hash", []any{}, &root); err != nil {
		return nil, fmt.Errorf("state root hash: %w", err)
	}

	var info struct {
		Account struct {
			MainPurse string `json:"main_purse"`
		} `json:"account"`
	}
	if err := c.call(ctx, "state_get_account_info", map[string]any{"public_key": key.Hex()}, &info); err != nil {
		return nil, fmt.Errorf("account info: %w", err)
	}
	if info.Account.MainPurse == "" {
		return nil, ErrNoPurse
	}

	var bal struct {
		BalanceValue string `json:"balance_value"`
	}
	params := map[string]any{
		"state_root_hash": root.StateRootHash,
		"purse_uref":      info.Account.MainPurse,
	}
	if err := c.call(ctx, "state_get_balance", params, &bal); err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	motes, ok := new(big.Int).SetString(bal.BalanceValue, 10)
	if !ok {
		return nil, fmt.Errorf("balance: unparsable value %q", bal.BalanceValue)
	}
	return motes, nil
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if decoded.Error != nil {
		return decoded.Error
	}
	return json.Unmarshal(decoded.Result, out)
}

// FormatCSPR converts motes to CSPR with two decimals.
func FormatCSPR(motes *big.Int) string {
	if motes == nil {
		return "0"
	}
	return new(big.Rat).SetFrac(motes, big.NewInt(motesPerCSPR)).FloatString(2)
}
