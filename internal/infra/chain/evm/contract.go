package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/vietddude/merchantloader/internal/core/domain"
)

// MerchantRegistryABI is the slice of the registry contract the loader calls.
const MerchantRegistryABI = `[
	{
		"type": "function",
		"name": "addMerchantByAdmin",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "_uen", "type": "string"},
			{"name": "_entity_name", "type": "string"}
		],
		"outputs": []
	}
]`

const addMerchantMethod = "addMerchantByAdmin"

// MerchantEncoder packs addMerchantByAdmin(uen, name) call data.
type MerchantEncoder struct {
	abi abi.ABI
}

func NewMerchantEncoder() (*MerchantEncoder, error) {
	parsed, err := abi.JSON(strings.NewReader(MerchantRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	return &MerchantEncoder{abi: parsed}, nil
}

// Encode returns the call data for registering record.
func (e *MerchantEncoder) Encode(record domain.Record) ([]byte, error) {
	data, err := e.abi.Pack(addMerchantMethod, record.ID, record.Name)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", addMerchantMethod, err)
	}
	return data, nil
}
