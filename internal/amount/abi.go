package amount

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"revenueScope/internal/model"
)

// tradeTypes is the non-indexed layout of the settlement Trade log.
var tradeTypes = []string{"address", "address", "uint256", "uint256", "uint256", "bytes"}

// TradeFill is a decoded settlement trade.
type TradeFill struct {
	SellToken  common.Address
	BuyToken   common.Address
	SellAmount *big.Int
	BuyAmount  *big.Int
	FeeAmount  *big.Int
}

// Words decodes an ABI-encoded payload positionally against a declared
// type list. Pure and deterministic; malformed input yields a
// DecodeError the caller treats as "skip this record".
func Words(dataHex string, types []string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, model.Decodef("invalid data hex: %v", err)
	}
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			return nil, fmt.Errorf("bad type %q: %w", t, err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	values, err := args.Unpack(data)
	if err != nil {
		return nil, model.Decodef("unpack: %v", err)
	}
	return values, nil
}

// Uint256Word decodes the 32-byte word at the given position.
func Uint256Word(dataHex string, index int) (*big.Int, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, model.Decodef("invalid data hex: %v", err)
	}
	start := index * 32
	if index < 0 || start+32 > len(data) {
		return nil, model.Decodef("word %d out of range for %d bytes", index, len(data))
	}
	return new(big.Int).SetBytes(data[start : start+32]), nil
}

// DecodeTrade decodes the full (sellToken, buyToken, sellAmount,
// buyAmount, feeAmount, orderUid) trade payload.
func DecodeTrade(dataHex string) (TradeFill, error) {
	values, err := Words(dataHex, tradeTypes)
	if err != nil {
		return TradeFill{}, err
	}
	if len(values) != len(tradeTypes) {
		return TradeFill{}, model.Decodef("unexpected trade values: %d", len(values))
	}

	sellToken, err := asAddress(values[0])
	if err != nil {
		return TradeFill{}, err
	}
	buyToken, err := asAddress(values[1])
	if err != nil {
		return TradeFill{}, err
	}
	sellAmount, err := asBigInt(values[2])
	if err != nil {
		return TradeFill{}, err
	}
	buyAmount, err := asBigInt(values[3])
	if err != nil {
		return TradeFill{}, err
	}
	feeAmount, err := asBigInt(values[4])
	if err != nil {
		return TradeFill{}, err
	}

	return TradeFill{
		SellToken:  sellToken,
		BuyToken:   buyToken,
		SellAmount: sellAmount,
		BuyAmount:  buyAmount,
		FeeAmount:  feeAmount,
	}, nil
}

func asAddress(value interface{}) (common.Address, error) {
	addr, ok := value.(common.Address)
	if !ok {
		return common.Address{}, model.Decodef("expected address, got %T", value)
	}
	return addr, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	v, ok := value.(*big.Int)
	if !ok {
		return nil, model.Decodef("expected *big.Int, got %T", value)
	}
	return v, nil
}
