// Package ethchain talks to the VoteLedger contract on an Ethereum-style
// node over JSON-RPC. The node holds unlocked accounts (a Ganache dev chain
// in every deployment so far) and signs transactions itself, so this client
// never handles private keys for voters; it only chooses the from-address
// via the identity allocator.
package ethchain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/identity"
)

// voteLedgerABI is the deployed VoteLedger contract interface: an append-only
// vote log keyed by (electionId string, voter address) with a full-log getter.
const voteLedgerABI = `[
  {"anonymous":false,"inputs":[
     {"indexed":false,"internalType":"string","name":"electionId","type":"string"},
     {"indexed":false,"internalType":"string","name":"candidateId","type":"string"},
     {"indexed":false,"internalType":"address","name":"voter","type":"address"}],
   "name":"VoteCast","type":"event"},
  {"inputs":[{"internalType":"string","name":"","type":"string"},{"internalType":"address","name":"","type":"address"}],
   "name":"hasVoted","outputs":[{"internalType":"bool","name":"","type":"bool"}],
   "stateMutability":"view","type":"function","constant":true},
  {"inputs":[{"internalType":"string","name":"electionId","type":"string"},{"internalType":"string","name":"candidateId","type":"string"}],
   "name":"castVote","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"getAllVotes",
   "outputs":[{"components":[
     {"internalType":"string","name":"electionId","type":"string"},
     {"internalType":"string","name":"candidateId","type":"string"},
     {"internalType":"address","name":"voter","type":"address"}],
     "internalType":"struct VoteLedger.Vote[]","name":"","type":"tuple[]"}],
   "stateMutability":"view","type":"function","constant":true}
]`

const castVoteGas = 300000

// Client implements ledger.Client against a JSON-RPC endpoint.
type Client struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	abi     abi.ABI
	alloc   *identity.Allocator
	timeout time.Duration
	log     *slog.Logger

	mu       sync.RWMutex
	contract common.Address

	// acctIdx cycles through the node's unlocked accounts when assigning
	// addresses to voters seen for the first time.
	acctMu  sync.Mutex
	acctIdx int
}

// Dial connects to the node. The connection is lazy on the RPC layer, so
// Dial succeeding does not guarantee the node is up; IsConnected does.
func Dial(ctx context.Context, url, contractAddress string, store identity.Store, timeout time.Duration, log *slog.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(voteLedgerABI))
	if err != nil {
		return nil, fmt.Errorf("parse vote ledger abi: %w", err)
	}
	c := &Client{
		rpc:      rpcClient,
		eth:      ethclient.NewClient(rpcClient),
		abi:      parsed,
		timeout:  timeout,
		log:      log,
		contract: common.HexToAddress(contractAddress),
	}
	c.alloc = identity.NewAllocator(store, c.nextAccount)
	return c, nil
}

// SetContractAddress points the client at a freshly deployed contract.
func (c *Client) SetContractAddress(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contract = common.HexToAddress(addr)
}

// ContractAddress returns the current contract address in hex.
func (c *Client) ContractAddress() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.contract == (common.Address{}) {
		return ""
	}
	return c.contract.Hex()
}

func (c *Client) contractTarget() (common.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.contract == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: contract address not set", ledger.ErrNotConnected)
	}
	return c.contract, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// IsConnected asks the node whether it is listening. Any transport error is
// treated as "not connected".
func (c *Client) IsConnected(ctx context.Context) bool {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var listening bool
	if err := c.rpc.CallContext(ctx, &listening, "net_listening"); err != nil {
		return false
	}
	return listening
}

// accounts returns the node's unlocked accounts.
func (c *Client) accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotConnected, err)
	}
	return accounts, nil
}

// nextAccount hands the identity allocator the next unlocked account in a
// round-robin. With more voters than accounts the mapping stops being
// injective and ledger-side duplicate detection degrades; the relational
// store remains the admission arbiter either way.
func (c *Client) nextAccount(ctx context.Context) (string, error) {
	accounts, err := c.accounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", ledger.ErrNoAccount
	}
	c.acctMu.Lock()
	idx := c.acctIdx % len(accounts)
	c.acctIdx++
	c.acctMu.Unlock()
	return accounts[idx].Hex(), nil
}

func (c *Client) hasVoted(ctx context.Context, contract common.Address, compositeElectionID string, voter common.Address) (bool, error) {
	input, err := c.abi.Pack("hasVoted", compositeElectionID, voter)
	if err != nil {
		return false, fmt.Errorf("pack hasVoted: %w", err)
	}
	res, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ledger.ErrNotConnected, err)
	}
	out, err := c.abi.Unpack("hasVoted", res)
	if err != nil {
		return false, fmt.Errorf("unpack hasVoted: %w", err)
	}
	voted := *abi.ConvertType(out[0], new(bool)).(*bool)
	return voted, nil
}

func (c *Client) AppendVote(ctx context.Context, compositeElectionID, candidateID, voterID string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	contract, err := c.contractTarget()
	if err != nil {
		return "", err
	}

	from, err := c.alloc.AddressFor(ctx, voterID)
	if err != nil {
		return "", err
	}
	fromAddr := common.HexToAddress(from)

	voted, err := c.hasVoted(ctx, contract, compositeElectionID, fromAddr)
	if err != nil {
		return "", err
	}
	if voted {
		return "", ledger.ErrAlreadyVoted
	}

	input, err := c.abi.Pack("castVote", compositeElectionID, candidateID)
	if err != nil {
		return "", fmt.Errorf("pack castVote: %w", err)
	}

	// The node signs with its own unlocked account, web3-style.
	var txHash common.Hash
	err = c.rpc.CallContext(ctx, &txHash, "eth_sendTransaction", map[string]any{
		"from": fromAddr,
		"to":   contract,
		"data": hexutil.Encode(input),
		"gas":  hexutil.Uint64(castVoteGas),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ledger.ErrNotConnected, err)
	}
	c.log.DebugContext(ctx, "vote cast on ledger", "tx", txHash.Hex(), "from", fromAddr.Hex())
	return txHash.Hex(), nil
}

func (c *Client) ReadAllVotes(ctx context.Context) ([]ledger.Entry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	contract, err := c.contractTarget()
	if err != nil {
		return nil, err
	}
	input, err := c.abi.Pack("getAllVotes")
	if err != nil {
		return nil, fmt.Errorf("pack getAllVotes: %w", err)
	}
	res, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotConnected, err)
	}
	out, err := c.abi.Unpack("getAllVotes", res)
	if err != nil {
		return nil, fmt.Errorf("unpack getAllVotes: %w", err)
	}

	raw := *abi.ConvertType(out[0], new([]struct {
		ElectionId  string         `abi:"electionId"`
		CandidateId string         `abi:"candidateId"`
		Voter       common.Address `abi:"voter"`
	})).(*[]struct {
		ElectionId  string         `abi:"electionId"`
		CandidateId string         `abi:"candidateId"`
		Voter       common.Address `abi:"voter"`
	})

	entries := make([]ledger.Entry, 0, len(raw))
	for _, v := range raw {
		entries = append(entries, ledger.Entry{
			ElectionID:  v.ElectionId,
			CandidateID: v.CandidateId,
			Voter:       v.Voter.Hex(),
		})
	}
	return entries, nil
}

func (c *Client) TallyForElection(ctx context.Context, electionID string) ([]ledger.CandidateCount, error) {
	entries, err := c.ReadAllVotes(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.TallyEntries(entries, electionID), nil
}

// NetworkInfo gathers endpoint details in parallel. Failures degrade to a
// disconnected zero value instead of erroring: the status endpoint must
// always answer.
func (c *Client) NetworkInfo(ctx context.Context) ledger.NetworkInfo {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	info := ledger.NetworkInfo{ContractAddress: c.ContractAddress()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := c.eth.NetworkID(gctx)
		if err != nil {
			return err
		}
		info.NetworkID = id.Int64()
		return nil
	})
	g.Go(func() error {
		n, err := c.eth.BlockNumber(gctx)
		if err != nil {
			return err
		}
		info.BlockNumber = n
		return nil
	})
	g.Go(func() error {
		accounts, err := c.accounts(gctx)
		if err != nil {
			return err
		}
		info.AccountsCount = len(accounts)
		return nil
	})
	if err := g.Wait(); err != nil {
		c.log.WarnContext(ctx, "ledger network info unavailable", "error", err)
		return ledger.NetworkInfo{ContractAddress: info.ContractAddress, Connected: false}
	}
	info.Connected = true
	return info
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}
