package emulator

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"wallet-suite/internal/device"
	"wallet-suite/internal/network"
	"wallet-suite/pkg/bip32"
	"wallet-suite/pkg/wallet/types"
)

var errSignNotDefined = errors.New("Method for signTransaction not defined")

func (e *Emulator) SignTransaction(ctx context.Context, p device.SignParams) device.Response[device.SignPayload] {
	if f, ok := e.failure(device.MethodSignTransaction); ok {
		return device.Fail[device.SignPayload](f.Error, f.Code)
	}
	if p.Transaction == nil {
		return device.Fail[device.SignPayload]("Transaction is missing", device.CodeDataError)
	}
	n, ok := network.Lookup(p.Coin)
	if !ok {
		return device.Fail[device.SignPayload]("Coin not found", device.CodeDataError)
	}

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.inflight = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inflight = nil
		e.mu.Unlock()
		cancel()
	}()

	e.feed.Send(device.ButtonRequest{Code: device.ButtonRequestSignTx, Device: e.path})
	if err := e.waitConfirmation(ctx); err != nil {
		return device.Fail[device.SignPayload]("Cancelled", device.CodeActionCancelled)
	}

	w, err := e.wallet(p.UseEmptyPassphrase)
	if err != nil {
		return device.Fail[device.SignPayload](err.Error(), device.CodeDataError)
	}
	payload, err := network.Visit[device.SignPayload](n.Type, signVisitor{w: w, n: n, tx: p.Transaction})
	if err != nil {
		return device.Fail[device.SignPayload](err.Error(), device.CodeDataError)
	}

	e.log.Info("transaction signed", zap.String("coin", n.Symbol), zap.String("txid", payload.Txid))
	return device.Ok(payload)
}

// waitConfirmation 等待模拟的用户确认，期间可被 Cancel 中止
func (e *Emulator) waitConfirmation(ctx context.Context) error {
	if e.signDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.signDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type signVisitor struct {
	w  *bip32.Wallet
	n  network.Network
	tx *types.UnsignedTransaction
}

func (v signVisitor) VisitBitcoin() (device.SignPayload, error) {
	if v.tx.Bitcoin == nil {
		return device.SignPayload{}, errors.New("bitcoin transaction is missing")
	}
	return signBitcoin(v.w, v.n, v.tx.Bitcoin)
}

func (v signVisitor) VisitEthereum() (device.SignPayload, error) {
	if v.tx.Ethereum == nil {
		return device.SignPayload{}, errors.New("ethereum transaction is missing")
	}
	return signEthereum(v.w, v.n, v.tx.Ethereum)
}

// VisitRipple ripple 二进制编码不在模拟设备的范围内，请使用 bridge 设备
func (v signVisitor) VisitRipple() (device.SignPayload, error) {
	return device.SignPayload{}, errSignNotDefined
}

func signEthereum(w *bip32.Wallet, n network.Network, utx *types.EthereumTx) (device.SignPayload, error) {
	key, err := w.PrivateKey(utx.DerivationPath)
	if err != nil {
		return device.SignPayload{}, err
	}
	value, ok := new(big.Int).SetString(utx.Value, 10)
	if !ok {
		return device.SignPayload{}, fmt.Errorf("invalid value %q", utx.Value)
	}
	gasPrice, ok := new(big.Int).SetString(utx.GasPrice, 10)
	if !ok {
		return device.SignPayload{}, fmt.Errorf("invalid gas price %q", utx.GasPrice)
	}
	chainID := utx.ChainID
	if chainID == 0 {
		chainID = n.ChainID
	}

	to := common.HexToAddress(utx.To)
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    utx.Nonce,
		GasPrice: gasPrice,
		Gas:      utx.GasLimit,
		To:       &to,
		Value:    value,
		Data:     common.FromHex(utx.Data),
	})

	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(big.NewInt(chainID)), key.ToECDSA())
	if err != nil {
		return device.SignPayload{}, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return device.SignPayload{}, err
	}
	return device.SignPayload{Serialized: hexutil.Encode(raw), Txid: signed.Hash().Hex()}, nil
}

type bitcoinInput struct {
	key      *btcec.PrivateKey
	pkScript []byte
	amount   int64
	witness  bool
}

func signBitcoin(w *bip32.Wallet, n network.Network, utx *types.BitcoinTx) (device.SignPayload, error) {
	msg := wire.NewMsgTx(wire.TxVersion)
	prevOuts := txscript.NewMultiPrevOutFetcher(nil)
	inputs := make([]bitcoinInput, 0, len(utx.Inputs))

	for _, in := range utx.Inputs {
		hash, err := chainhash.NewHashFromStr(in.Txid)
		if err != nil {
			return device.SignPayload{}, fmt.Errorf("invalid input txid %q: %w", in.Txid, err)
		}
		amount, err := strconv.ParseInt(in.Amount, 10, 64)
		if err != nil {
			return device.SignPayload{}, fmt.Errorf("invalid input amount %q: %w", in.Amount, err)
		}
		key, err := w.PrivateKey(in.Path)
		if err != nil {
			return device.SignPayload{}, err
		}
		addrStr, err := deriveAddress(n, in.Path, key.PubKey())
		if err != nil {
			return device.SignPayload{}, err
		}
		addr, err := btcutil.DecodeAddress(addrStr, n.Params)
		if err != nil {
			return device.SignPayload{}, err
		}
		pkScript, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return device.SignPayload{}, err
		}

		op := wire.NewOutPoint(hash, in.Vout)
		msg.AddTxIn(wire.NewTxIn(op, nil, nil))
		prevOuts.AddPrevOut(*op, wire.NewTxOut(amount, pkScript))

		_, witness := addr.(*btcutil.AddressWitnessPubKeyHash)
		inputs = append(inputs, bitcoinInput{key: key, pkScript: pkScript, amount: amount, witness: witness})
	}

	for _, out := range utx.Outputs {
		addr, err := btcutil.DecodeAddress(out.Address, n.Params)
		if err != nil {
			return device.SignPayload{}, fmt.Errorf("invalid output address %q: %w", out.Address, err)
		}
		script, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return device.SignPayload{}, err
		}
		amount, err := strconv.ParseInt(out.Amount, 10, 64)
		if err != nil {
			return device.SignPayload{}, fmt.Errorf("invalid output amount %q: %w", out.Amount, err)
		}
		msg.AddTxOut(wire.NewTxOut(amount, script))
	}

	sigHashes := txscript.NewTxSigHashes(msg, prevOuts)
	for i, in := range inputs {
		if in.witness {
			witness, err := txscript.WitnessSignature(msg, sigHashes, i, in.amount, in.pkScript, txscript.SigHashAll, in.key, true)
			if err != nil {
				return device.SignPayload{}, err
			}
			msg.TxIn[i].Witness = witness
			continue
		}
		sigScript, err := txscript.SignatureScript(msg, i, in.pkScript, txscript.SigHashAll, in.key, true)
		if err != nil {
			return device.SignPayload{}, err
		}
		msg.TxIn[i].SignatureScript = sigScript
	}

	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return device.SignPayload{}, err
	}
	return device.SignPayload{Serialized: hex.EncodeToString(buf.Bytes()), Txid: msg.TxHash().String()}, nil
}
