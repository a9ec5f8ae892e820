// Package chainclient adapts github.com/ethereum/go-ethereum's ethclient to
// the pricing.PoolSource interface and a gas-price query, following the
// teacher's ContractClient.Call/Send pattern (blackhole.go) but bound to a
// constant-product getReserves()/token0()/token1() ABI instead of the
// teacher's Algebra-pool ABI.
package chainclient

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"strings"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/amm"
	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// pairABI covers the three read methods a constant-product pool exposes:
// getReserves, token0, token1, plus fee() for pools with a mutable fee tier.
const pairABI = `[
  {"name":"getReserves","outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"stateMutability":"view","type":"function","inputs":[]},
  {"name":"token0","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function","inputs":[]},
  {"name":"token1","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function","inputs":[]},
  {"name":"fee","outputs":[{"name":"","type":"uint24"}],"stateMutability":"view","type":"function","inputs":[]}
]`

// GasPrice mirrors the consumed Chain client's get_gas_price() tiers from
// spec.md §6.
type GasPrice struct {
	BaseFee       *big.Int
	PriorityLow   *big.Int
	PriorityMed   *big.Int
	PriorityHigh  *big.Int
}

// Client wraps an ethclient.Client, retrying RPC calls with exponential
// backoff and jitter per spec.md §6/§7 ("retries live inside the chain
// client").
type Client struct {
	eth        *ethclient.Client
	abi        abi.ABI
	maxRetries int
	defaultFee int64 // fallback fee_bps when a pool's fee() call is unavailable
}

// New dials rpcURL and parses the pair ABI once.
func New(ctx context.Context, rpcURL string, defaultFeeBps int64) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chainclient: dial %s: %w", rpcURL, errs.WithKind(errs.KindInfrastructure, err))
	}
	parsed, err := abi.JSON(strings.NewReader(pairABI))
	if err != nil {
		return nil, fmt.Errorf("chainclient: parse abi: %w", err)
	}
	return &Client{eth: eth, abi: parsed, maxRetries: 3, defaultFee: defaultFeeBps}, nil
}

// withRetry retries fn with exponential backoff (100ms, 200ms, 400ms...,
// each plus up to half again of random jitter) up to maxRetries times,
// surfacing the last error wrapped as ErrRetriesExhausted.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := 100 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
		backoff *= 2
	}
	return fmt.Errorf("chainclient: %w: %v", errs.ErrRetriesExhausted, lastErr)
}

func (c *Client) call(ctx context.Context, addr common.Address, method string, out interface{}) error {
	data, err := c.abi.Pack(method)
	if err != nil {
		return fmt.Errorf("chainclient: pack %s: %w", method, err)
	}
	var raw []byte
	err = c.withRetry(ctx, func() error {
		raw, err = c.eth.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("chainclient: call %s on %s: %w", method, addr.Hex(), errs.ErrRPCError)
	}
	return c.abi.UnpackIntoInterface(out, method, raw)
}

// FetchPool implements pricing.PoolSource: reads token0/token1/reserves/fee
// from the pool contract at address and builds an amm.Pair.
func (c *Client) FetchPool(ctx context.Context, address money.Address) (amm.Pair, error) {
	addr := address.Common()

	var token0Out struct{ Addr common.Address }
	if err := c.call(ctx, addr, "token0", &token0Out.Addr); err != nil {
		return amm.Pair{}, err
	}
	var token1Out struct{ Addr common.Address }
	if err := c.call(ctx, addr, "token1", &token1Out.Addr); err != nil {
		return amm.Pair{}, err
	}

	var reserves struct {
		Reserve0           *big.Int
		Reserve1           *big.Int
		BlockTimestampLast uint32
	}
	if err := c.call(ctx, addr, "getReserves", &reserves); err != nil {
		return amm.Pair{}, err
	}

	feeBps := c.defaultFee
	var fee struct{ Fee *big.Int }
	if err := c.call(ctx, addr, "fee", &fee); err == nil && fee.Fee != nil {
		feeBps = fee.Fee.Int64()
	}

	t0 := money.Token{Symbol: "", Decimals: 18, Address: money.FromCommon(token0Out.Addr)}
	t1 := money.Token{Symbol: "", Decimals: 18, Address: money.FromCommon(token1Out.Addr)}
	return amm.NewPair(address, t0, t1, reserves.Reserve0, reserves.Reserve1, feeBps)
}

// GetGasPrice implements the consumed chain client's get_gas_price(), using
// the network's suggested gas price as BaseFee and fixed 1/2/5 gwei offsets
// above it for the priority tiers.
func (c *Client) GetGasPrice(ctx context.Context) (GasPrice, error) {
	var head *big.Int
	err := c.withRetry(ctx, func() error {
		h, err := c.eth.SuggestGasPrice(ctx)
		if err != nil {
			return err
		}
		head = h
		return nil
	})
	if err != nil {
		return GasPrice{}, fmt.Errorf("chainclient: gas price: %w", errs.ErrRPCError)
	}
	gwei := big.NewInt(1_000_000_000)
	return GasPrice{
		BaseFee:      head,
		PriorityLow:  new(big.Int).Add(head, gwei),
		PriorityMed:  new(big.Int).Add(head, new(big.Int).Mul(gwei, big.NewInt(2))),
		PriorityHigh: new(big.Int).Add(head, new(big.Int).Mul(gwei, big.NewInt(5))),
	}, nil
}

// GetBalance implements get_balance(address).
func (c *Client) GetBalance(ctx context.Context, address money.Address) (*big.Int, error) {
	var bal *big.Int
	err := c.withRetry(ctx, func() error {
		b, err := c.eth.BalanceAt(ctx, address.Common(), nil)
		if err != nil {
			return err
		}
		bal = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chainclient: balance: %w", errs.ErrRPCError)
	}
	return bal, nil
}

// GetNonce implements get_nonce(address, block) against the pending block.
func (c *Client) GetNonce(ctx context.Context, address money.Address) (uint64, error) {
	var nonce uint64
	err := c.withRetry(ctx, func() error {
		n, err := c.eth.PendingNonceAt(ctx, address.Common())
		if err != nil {
			return err
		}
		nonce = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("chainclient: nonce: %w", errs.ErrRPCError)
	}
	return nonce, nil
}
