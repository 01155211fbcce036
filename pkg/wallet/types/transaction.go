package types

// BitcoinInput 被选中的 UTXO
type BitcoinInput struct {
	Txid   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Amount string `json:"amount"` // satoshi
	Path   string `json:"path"`   // e.g. m/84'/0'/0'/0/3
}

// BitcoinOutput 交易输出，Change 为找零
type BitcoinOutput struct {
	Address string `json:"address"`
	Amount  string `json:"amount"` // satoshi
	Change  bool   `json:"change,omitempty"`
	Path    string `json:"path,omitempty"`
}

type BitcoinTx struct {
	Inputs  []BitcoinInput  `json:"inputs"`
	Outputs []BitcoinOutput `json:"outputs"`
}

// EthereumTx represents an account-based transaction waiting to be signed.
// It contains all necessary fields for the device to sign, plus metadata for the user to verify.
type EthereumTx struct {
	To       string `json:"to"`             // Recipient address (token contract for ERC-20)
	Value    string `json:"value"`          // Amount in wei
	Nonce    uint64 `json:"nonce"`          // Account nonce
	GasLimit uint64 `json:"gas_limit"`      // Gas limit
	GasPrice string `json:"gas_price"`      // Gas price in wei
	Data     string `json:"data,omitempty"` // Contract data (hex)
	ChainID  int64  `json:"chain_id"`       // EIP-155 replay protection

	// DerivationPath tells the signer which key to use, e.g. "m/44'/60'/0'/0/0"
	DerivationPath string `json:"derivation_path"`
}

// RippleTx ledger-based payment
type RippleTx struct {
	Account        string  `json:"account"`
	Destination    string  `json:"destination"`
	Amount         string  `json:"amount"` // drops
	Fee            string  `json:"fee"`    // drops
	Sequence       uint32  `json:"sequence"`
	DestinationTag *uint32 `json:"destination_tag,omitempty"`
	DerivationPath string  `json:"derivation_path"`
}

// UnsignedTransaction 三个网络家族中恰好一个字段非空
type UnsignedTransaction struct {
	Bitcoin  *BitcoinTx  `json:"bitcoin,omitempty"`
	Ethereum *EthereumTx `json:"ethereum,omitempty"`
	Ripple   *RippleTx   `json:"ripple,omitempty"`
}
