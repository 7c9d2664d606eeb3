package rpctest

import (
	"encoding/json"
	"strconv"

	"github.com/cirocosta/htmlcoin-exporter/pkg/rpc"
)

// BestBlockHash is the hash reported by the healthy-node fixtures.
//
const BestBlockHash = "00000000d1145790a8694403d4063f323d499e655c83426834d4ce2f8dd4a2ee"

// SetHealthyNode configures every method the exporter relies on with the
// answers of a node that is synced and reachable.
//
// Hash rates are reported as 1000*window (so -1 -> -1000); fee rates as
// window/1000.
//
func (s *Server) SetHealthyNode() {
	s.SetResult("getdifficulty", map[string]any{
		"proof-of-work":  1.52587890625e-05,
		"proof-of-stake": 4015.81,
	})

	s.SetHandler("getnetworkhashps", func(params []json.RawMessage) (any, *rpc.RPCError) {
		window, rpcErr := intParam(params, 0)
		if rpcErr != nil {
			return nil, rpcErr
		}

		return 1000 * window, nil
	})

	s.SetResult("getmemoryinfo", map[string]any{
		"locked": map[string]any{
			"used":        32,
			"free":        65504,
			"total":       65536,
			"locked":      65536,
			"chunks_used": 1,
			"chunks_free": 2,
		},
	})

	s.SetResult("getblockchaininfo", map[string]any{
		"chain":                "test",
		"blocks":               812345,
		"headers":              812345,
		"bestblockhash":        BestBlockHash,
		"size_on_disk":         1234567890,
		"verificationprogress": 0.9999,
	})

	s.SetResult("getblockstats", map[string]any{
		"total_size":   2048,
		"total_weight": 8192,
		"totalfee":     123400,
		"txs":          3,
		"height":       812345,
		"ins":          4,
		"outs":         7,
		"total_out":    123456789,
	})

	s.SetResult("listbanned", []any{})

	s.SetResult("getnetworkinfo", map[string]any{
		"version":         1020000,
		"subversion":      "/Htmlcoin:1.2.0/",
		"protocolversion": 70018,
		"connections":     10,
		"connections_in":  4,
		"connections_out": 6,
		"warnings":        "",
	})

	s.SetResult("getchaintxstats", map[string]any{"txcount": 4242424})

	s.SetResult("getmempoolinfo", map[string]any{
		"bytes":            1500,
		"size":             5,
		"usage":            6400,
		"unbroadcastcount": 1,
	})

	s.SetResult("getchaintips", []any{
		map[string]any{"height": 812345, "hash": BestBlockHash, "branchlen": 0, "status": "active"},
		map[string]any{"height": 812000, "hash": "ab", "branchlen": 1, "status": "valid-fork"},
	})

	s.SetHandler("estimatesmartfee", func(params []json.RawMessage) (any, *rpc.RPCError) {
		window, rpcErr := intParam(params, 0)
		if rpcErr != nil {
			return nil, rpcErr
		}

		return map[string]any{
			"feerate": json.Number(strconv.FormatFloat(float64(window)/1000, 'f', -1, 64)),
			"blocks":  window,
		}, nil
	})

	s.SetResult("getnettotals", map[string]any{
		"totalbytesrecv": 7000,
		"totalbytessent": 9000,
		"timemillis":     1700000000000,
	})

	s.SetResult("uptime", 3600)
}

func intParam(params []json.RawMessage, idx int) (int, *rpc.RPCError) {
	if len(params) <= idx {
		return 0, &rpc.RPCError{Code: -1, Message: "missing parameter"}
	}

	var v int
	if err := json.Unmarshal(params[idx], &v); err != nil {
		return 0, &rpc.RPCError{Code: -1, Message: err.Error()}
	}

	return v, nil
}
