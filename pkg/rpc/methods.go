package rpc

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type (
	// Difficulty is the result of `getdifficulty`.
	//
	Difficulty struct {
		ProofOfWork  float64 `json:"proof-of-work"`
		ProofOfStake float64 `json:"proof-of-stake"`
	}

	// LockedMemory is the `locked` section of `getmemoryinfo`.
	//
	LockedMemory struct {
		Used       int64 `json:"used"`
		Free       int64 `json:"free"`
		Total      int64 `json:"total"`
		Locked     int64 `json:"locked"`
		ChunksUsed int64 `json:"chunks_used"`
		ChunksFree int64 `json:"chunks_free"`
	}

	MemoryInfo struct {
		Locked LockedMemory `json:"locked"`
	}

	BlockchainInfo struct {
		Chain                string  `json:"chain"`
		Blocks               int64   `json:"blocks"`
		Headers              int64   `json:"headers"`
		BestBlockHash        string  `json:"bestblockhash"`
		SizeOnDisk           int64   `json:"size_on_disk"`
		VerificationProgress float64 `json:"verificationprogress"`
	}

	// BlockStats holds the subset of `getblockstats` fields requested by
	// BlockStatsFields. Monetary values are in the smallest unit.
	//
	BlockStats struct {
		TotalSize   int64 `json:"total_size"`
		TotalWeight int64 `json:"total_weight"`
		TotalFee    int64 `json:"totalfee"`
		Txs         int64 `json:"txs"`
		Height      int64 `json:"height"`
		Ins         int64 `json:"ins"`
		Outs        int64 `json:"outs"`
		TotalOut    int64 `json:"total_out"`
	}

	BannedPeer struct {
		// Address is the banned ip or subnet, e.g. `10.0.0.1/32`.
		//
		Address     string `json:"address"`
		BanCreated  int64  `json:"ban_created"`
		BannedUntil int64  `json:"banned_until"`

		// BanReason is omitted by nodes for bans added by hand.
		//
		BanReason *string `json:"ban_reason,omitempty"`
	}

	NetworkInfo struct {
		Version         int64  `json:"version"`
		Subversion      string `json:"subversion"`
		ProtocolVersion int64  `json:"protocolversion"`
		Connections     int64  `json:"connections"`

		// older nodes don't split connections by direction.
		ConnectionsIn  *int64 `json:"connections_in,omitempty"`
		ConnectionsOut *int64 `json:"connections_out,omitempty"`

		Warnings Warnings `json:"warnings"`
	}

	ChainTxStats struct {
		TxCount int64 `json:"txcount"`
	}

	MempoolInfo struct {
		Bytes int64 `json:"bytes"`
		Size  int64 `json:"size"`
		Usage int64 `json:"usage"`

		UnbroadcastCount *int64 `json:"unbroadcastcount,omitempty"`
	}

	ChainTip struct {
		Height    int64  `json:"height"`
		Hash      string `json:"hash"`
		BranchLen int64  `json:"branchlen"`
		Status    string `json:"status"`
	}

	// SmartFee is the result of `estimatesmartfee`. FeeRate (coins per
	// kilobyte) is absent when the node doesn't have enough data yet.
	//
	SmartFee struct {
		FeeRate *decimal.Decimal `json:"feerate,omitempty"`
		Errors  []string         `json:"errors,omitempty"`
		Blocks  int64            `json:"blocks"`
	}

	NetTotals struct {
		TotalBytesRecv int64 `json:"totalbytesrecv"`
		TotalBytesSent int64 `json:"totalbytessent"`
		TimeMillis     int64 `json:"timemillis"`
	}

	// Warnings accommodates both the single string older nodes report
	// and the list newer ones do.
	//
	Warnings []string
)

// BlockStatsFields are the `getblockstats` fields decoded into BlockStats.
//
var BlockStatsFields = []string{
	"total_size", "total_weight", "totalfee", "txs",
	"height", "ins", "outs", "total_out",
}

func (w *Warnings) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*w = nil
		if single != "" {
			*w = Warnings{single}
		}

		return nil
	}

	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}

	*w = nil
	for _, warning := range list {
		if warning != "" {
			*w = append(*w, warning)
		}
	}

	return nil
}

// Any tells whether at least one warning is being reported.
//
func (w Warnings) Any() bool {
	return len(w) > 0
}

func (c *Client) GetDifficulty(ctx context.Context) (*Difficulty, error) {
	res := &Difficulty{}

	ok, err := c.call(ctx, "getdifficulty", nil, res, "proof-of-stake")
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "getdifficulty", Field: "result"}
	}

	return res, nil
}

// GetNetworkHashPS estimates the network hash rate over the last `blocks`
// blocks (-1 meaning since the last difficulty change). It returns nil when
// the node can't give an estimate.
//
func (c *Client) GetNetworkHashPS(ctx context.Context, blocks int) (*float64, error) {
	var res float64

	ok, err := c.call(ctx, "getnetworkhashps", []any{blocks}, &res)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}

	return &res, nil
}

func (c *Client) GetMemoryInfo(ctx context.Context) (*MemoryInfo, error) {
	res := &MemoryInfo{}

	ok, err := c.call(ctx, "getmemoryinfo", nil, res,
		"locked.used", "locked.free", "locked.total",
		"locked.locked", "locked.chunks_used", "locked.chunks_free",
	)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "getmemoryinfo", Field: "result"}
	}

	return res, nil
}

func (c *Client) GetBlockchainInfo(ctx context.Context) (*BlockchainInfo, error) {
	res := &BlockchainInfo{}

	ok, err := c.call(ctx, "getblockchaininfo", nil, res,
		"blocks", "size_on_disk", "verificationprogress", "bestblockhash",
	)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "getblockchaininfo", Field: "result"}
	}

	return res, nil
}

// GetBlockStats retrieves BlockStatsFields for the block identified by
// `hash`. A nil result means the node has no stats for it (e.g., pruned).
//
func (c *Client) GetBlockStats(ctx context.Context, hash string) (*BlockStats, error) {
	res := &BlockStats{}

	ok, err := c.call(ctx, "getblockstats",
		[]any{hash, BlockStatsFields}, res, BlockStatsFields...)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, nil
	}

	return res, nil
}

func (c *Client) ListBanned(ctx context.Context) ([]BannedPeer, error) {
	res := []BannedPeer{}

	ok, err := c.call(ctx, "listbanned", nil, &res,
		"address", "ban_created", "banned_until")
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "listbanned", Field: "result"}
	}

	return res, nil
}

func (c *Client) GetNetworkInfo(ctx context.Context) (*NetworkInfo, error) {
	res := &NetworkInfo{}

	ok, err := c.call(ctx, "getnetworkinfo", nil, res,
		"version", "protocolversion", "connections", "warnings")
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "getnetworkinfo", Field: "result"}
	}

	return res, nil
}

func (c *Client) GetChainTxStats(ctx context.Context) (*ChainTxStats, error) {
	res := &ChainTxStats{}

	ok, err := c.call(ctx, "getchaintxstats", nil, res, "txcount")
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "getchaintxstats", Field: "result"}
	}

	return res, nil
}

func (c *Client) GetMempoolInfo(ctx context.Context) (*MempoolInfo, error) {
	res := &MempoolInfo{}

	ok, err := c.call(ctx, "getmempoolinfo", nil, res,
		"bytes", "size", "usage")
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "getmempoolinfo", Field: "result"}
	}

	return res, nil
}

func (c *Client) GetChainTips(ctx context.Context) ([]ChainTip, error) {
	res := []ChainTip{}

	ok, err := c.call(ctx, "getchaintips", nil, &res)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "getchaintips", Field: "result"}
	}

	return res, nil
}

// EstimateSmartFee asks for the fee rate needed for a transaction to be
// confirmed within `blocks` blocks.
//
func (c *Client) EstimateSmartFee(ctx context.Context, blocks int) (*SmartFee, error) {
	res := &SmartFee{}

	ok, err := c.call(ctx, "estimatesmartfee", []any{blocks}, res)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "estimatesmartfee", Field: "result"}
	}

	return res, nil
}

func (c *Client) GetNetTotals(ctx context.Context) (*NetTotals, error) {
	res := &NetTotals{}

	ok, err := c.call(ctx, "getnettotals", nil, res,
		"totalbytesrecv", "totalbytessent")
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &MissingFieldError{Method: "getnettotals", Field: "result"}
	}

	return res, nil
}

// Uptime is the number of seconds the node has been running for.
//
func (c *Client) Uptime(ctx context.Context) (int64, error) {
	var res int64

	ok, err := c.call(ctx, "uptime", nil, &res)
	if err != nil {
		return 0, err
	}

	if !ok {
		return 0, &MissingFieldError{Method: "uptime", Field: "result"}
	}

	return res, nil
}
