// Package metrics declares every instrument the exporter publishes.
//
// Fixed instruments are created and registered once, by NewRegistry. Those
// whose name depends on a block window (hash rates and fee estimates) are
// created the first time a window is asked for and then kept for the
// lifetime of the process.
//
// Labelled series (ban entries, banned peers per country) are never pruned:
// a peer that is no longer banned keeps its last values until the exporter
// restarts.
//
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the instruments that a collection pass writes to.
//
type Registry struct {
	Difficulty prometheus.Gauge

	MemInfoUsed       prometheus.Gauge
	MemInfoFree       prometheus.Gauge
	MemInfoTotal      prometheus.Gauge
	MemInfoLocked     prometheus.Gauge
	MemInfoChunksUsed prometheus.Gauge
	MemInfoChunksFree prometheus.Gauge

	Blocks               prometheus.Gauge
	SizeOnDisk           prometheus.Gauge
	VerificationProgress prometheus.Gauge

	LatestBlockSize    prometheus.Gauge
	LatestBlockTxs     prometheus.Gauge
	LatestBlockHeight  prometheus.Gauge
	LatestBlockWeight  prometheus.Gauge
	LatestBlockInputs  prometheus.Gauge
	LatestBlockOutputs prometheus.Gauge
	LatestBlockValue   prometheus.Gauge
	LatestBlockFee     prometheus.Gauge

	// BanCreated and BannedUntil are labelled by `address` and `reason`.
	//
	BanCreated  *prometheus.GaugeVec
	BannedUntil *prometheus.GaugeVec

	// BannedPeers is labelled by `country`, only written to when banned
	// addresses can be mapped to countries.
	//
	BannedPeers  *prometheus.GaugeVec
	BanDurations *BanDurations

	ServerVersion   prometheus.Gauge
	ProtocolVersion prometheus.Gauge
	Connections     prometheus.Gauge
	ConnectionsIn   prometheus.Gauge
	ConnectionsOut  prometheus.Gauge
	Warnings        prometheus.Counter

	TxCount prometheus.Gauge

	MempoolBytes       prometheus.Gauge
	MempoolSize        prometheus.Gauge
	MempoolUsage       prometheus.Gauge
	MempoolUnbroadcast prometheus.Gauge

	NumChainTips prometheus.Gauge

	// TotalBytesRecv and TotalBytesSent mirror the node's own counters:
	// they're set to whatever the node reports, not incremented.
	//
	TotalBytesRecv prometheus.Gauge
	TotalBytesSent prometheus.Gauge

	Uptime prometheus.Gauge

	// ExporterErrors is labelled by `type` (see rpc.ErrorType).
	//
	ExporterErrors       *prometheus.CounterVec
	ProcessTime          prometheus.Counter
	LastSuccessTimestamp prometheus.Gauge

	hashPS   *WindowedFamily
	smartFee *WindowedFamily
}

// NewRegistry declares and registers every fixed instrument against
// `registerer`. It panics if any of them was already registered there.
//
func NewRegistry(registerer prometheus.Registerer) *Registry {
	d := declarer{registerer}

	r := &Registry{
		Difficulty: d.gauge("htmlcoin_difficulty", "The current difficulty"),

		MemInfoUsed: d.gauge("htmlcoin_meminfo_used", "Number of bytes used"),
		MemInfoFree: d.gauge("htmlcoin_meminfo_free",
			"Number of bytes available in current arenas"),
		MemInfoTotal: d.gauge("htmlcoin_meminfo_total",
			"Total number of bytes managed"),
		MemInfoLocked: d.gauge("htmlcoin_meminfo_locked",
			"Amount of bytes that succeeded locking. If this number is "+
				"smaller than total, locking pages failed at some point "+
				"and key data could be swapped to disk."),
		MemInfoChunksUsed: d.gauge("htmlcoin_meminfo_chunks_used",
			"Number of allocated chunks"),
		MemInfoChunksFree: d.gauge("htmlcoin_meminfo_chunks_free",
			"Number of unused chunks"),

		Blocks: d.gauge("htmlcoin_blocks",
			"The current number of blocks processed in the server"),
		SizeOnDisk: d.gauge("htmlcoin_size_on_disk",
			"The estimated size of the block and undo files on disk"),
		VerificationProgress: d.gauge("htmlcoin_verification_progress",
			"Estimate of verification progress [0..1]"),

		LatestBlockSize: d.gauge("htmlcoin_latest_block_size",
			"Size of latest block in bytes"),
		LatestBlockTxs: d.gauge("htmlcoin_latest_block_txs",
			"Number of transactions in latest block"),
		LatestBlockHeight: d.gauge("htmlcoin_latest_block_height",
			"Height or index of latest block"),
		LatestBlockWeight: d.gauge("htmlcoin_latest_block_weight",
			"Weight of latest block according to BIP 141"),
		LatestBlockInputs: d.gauge("htmlcoin_latest_block_inputs",
			"Number of inputs in transactions of latest block"),
		LatestBlockOutputs: d.gauge("htmlcoin_latest_block_outputs",
			"Number of outputs in transactions of latest block"),
		LatestBlockValue: d.gauge("htmlcoin_latest_block_value",
			"Htmlcoin value of all transactions in the latest block"),
		LatestBlockFee: d.gauge("htmlcoin_latest_block_fee",
			"Total fee to process the latest block"),

		BanCreated: d.gaugeVec("htmlcoin_ban_created",
			"Time the ban was created", "address", "reason"),
		BannedUntil: d.gaugeVec("htmlcoin_banned_until",
			"Time the ban expires", "address", "reason"),
		BannedPeers: d.gaugeVec("htmlcoin_banned_peers",
			"Number of banned peers per country", "country"),
		BanDurations: NewBanDurations(),

		ServerVersion: d.gauge("htmlcoin_server_version", "The server version"),
		ProtocolVersion: d.gauge("htmlcoin_protocol_version",
			"The protocol version of the server"),
		Connections: d.gauge("htmlcoin_connections",
			"The number of connections or peers"),
		ConnectionsIn: d.gauge("htmlcoin_connections_in",
			"The number of connections in"),
		ConnectionsOut: d.gauge("htmlcoin_connections_out",
			"The number of connections out"),
		Warnings: d.counter("htmlcoin_warnings",
			"Number of network or blockchain warnings detected"),

		TxCount: d.gauge("htmlcoin_tx_count",
			"Number of TX since the genesis block"),

		MempoolBytes: d.gauge("htmlcoin_mempool_bytes",
			"Size of mempool in bytes"),
		MempoolSize: d.gauge("htmlcoin_mempool_size",
			"Number of unconfirmed transactions in mempool"),
		MempoolUsage: d.gauge("htmlcoin_mempool_usage",
			"Total memory usage for the mempool"),
		MempoolUnbroadcast: d.gauge("htmlcoin_mempool_unbroadcast",
			"Number of transactions waiting for acknowledgment"),

		NumChainTips: d.gauge("htmlcoin_num_chain_tips",
			"Number of known blockchain branches"),

		TotalBytesRecv: d.gauge("htmlcoin_total_bytes_recv",
			"Total bytes received"),
		TotalBytesSent: d.gauge("htmlcoin_total_bytes_sent",
			"Total bytes sent"),

		Uptime: d.gauge("htmlcoin_uptime",
			"The number of seconds that the server has been running"),

		ExporterErrors: d.counterVec("htmlcoin_exporter_errors",
			"Number of errors encountered by the exporter", "type"),
		ProcessTime: d.counter("htmlcoin_exporter_process_time",
			"Time spent processing metrics from htmlcoin node"),
		LastSuccessTimestamp: d.gauge("htmlcoin_exporter_last_success_timestamp",
			"Unix time of the last collection pass that went through "+
				"without errors"),

		hashPS:   NewWindowedFamily(registerer, hashPSName, hashPSHelp),
		smartFee: NewWindowedFamily(registerer, smartFeeName, smartFeeHelp),
	}

	registerer.MustRegister(r.BanDurations)

	return r
}

// HashPS is the gauge for the network hash rate estimated over `window`
// blocks.
//
func (r *Registry) HashPS(window int) prometheus.Gauge {
	return r.hashPS.Get(window)
}

// SmartFee is the gauge for the fee estimated for confirmation within
// `window` blocks.
//
func (r *Registry) SmartFee(window int) prometheus.Gauge {
	return r.smartFee.Get(window)
}

// declarer registers each instrument right as it's created so that a
// duplicate name fails at the line that declared it.
//
type declarer struct {
	registerer prometheus.Registerer
}

func (d declarer) gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	d.registerer.MustRegister(g)

	return g
}

func (d declarer) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	d.registerer.MustRegister(g)

	return g
}

func (d declarer) counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	d.registerer.MustRegister(c)

	return c
}

func (d declarer) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	d.registerer.MustRegister(c)

	return c
}
