package program

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// getAccountDiscriminator - Generate Anchor account discriminator
// Anchor uses: sha256("account:<StructName>")[:8]
func getAccountDiscriminator(name string) []byte {
	hash := sha256.Sum256([]byte("account:" + name))
	return hash[:8]
}

// Anchor account discriminators
var (
	AccountDiscriminatorPlatformConfig = getAccountDiscriminator("Platform")
	AccountDiscriminatorMerchant       = getAccountDiscriminator("Merchant")
	AccountDiscriminatorCustomer       = getAccountDiscriminator("Customer")
	AccountDiscriminatorPayment        = getAccountDiscriminator("Payment")
)

// MarshalAccount serializes account state with its 8-byte discriminator prefix.
// Layouts are borsh and MUST stay stable across upgrades - client SDKs parse
// these bytes directly.
func MarshalAccount(discriminator []byte, v interface{}) ([]byte, error) {
	data, err := bin.MarshalBorsh(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize account: %w", err)
	}
	return append(append([]byte{}, discriminator...), data...), nil
}

// UnmarshalAccount checks the discriminator prefix and decodes account state
func UnmarshalAccount(discriminator []byte, data []byte, v interface{}) error {
	if len(data) < 8 {
		return fmt.Errorf("invalid account data length: %d", len(data))
	}
	if !bytes.Equal(data[:8], discriminator) {
		return fmt.Errorf("account discriminator mismatch")
	}
	if err := bin.UnmarshalBorsh(v, data[8:]); err != nil {
		return fmt.Errorf("failed to parse account: %w", err)
	}
	return nil
}

// ParsePlatformConfigData - Parse platform config account data
func ParsePlatformConfigData(data []byte) (*PlatformConfig, error) {
	var cfg PlatformConfig
	if err := UnmarshalAccount(AccountDiscriminatorPlatformConfig, data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseMerchantData - Parse merchant account data
func ParseMerchantData(data []byte) (*Merchant, error) {
	var m Merchant
	if err := UnmarshalAccount(AccountDiscriminatorMerchant, data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseCustomerData - Parse customer account data
func ParseCustomerData(data []byte) (*Customer, error) {
	var c Customer
	if err := UnmarshalAccount(AccountDiscriminatorCustomer, data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParsePaymentData - Parse payment receipt account data
func ParsePaymentData(data []byte) (*Payment, error) {
	var p Payment
	if err := UnmarshalAccount(AccountDiscriminatorPayment, data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
