package store

// Declare database key prefix for objects
const (
	PrefixKey     = "key:"
	PrefixAddress = "addr:"

	PrefixBlock       = "blk:"
	PrefixBlockHeight = "blk_h:"

	PrefixTx = "tx:"

	PrefixUtxo     = "utxo:"
	PrefixUtxoAddr = "utxo_addr:"

	PrefixNote      = "note:"
	PrefixNullifier = "nf:"

	PrefixTreeNode = "tree:"
	PrefixPoolRoot = "pool_root:"
	PrefixPoolMeta = "pool_meta:"

	PrefixChainState = "state:"

	PoolMetaKeyNextPosition = "next_position"

	ChainStateKeyTipHeight = "tip_height"
	ChainStateKeyTipHash   = "tip_hash"
	ChainStateKeyTreeRoot  = "tree_root"
)
