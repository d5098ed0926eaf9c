package program

// SplitAmount computes the fee and net portions of a gross payment.
// feeAmount = floor(amount * feeBps / 10000), netAmount = amount - feeAmount.
// The split decomposes the product so it cannot overflow uint64 for any
// feeBps <= 10000: amount*fee/10000 == (amount/10000)*fee + (amount%10000)*fee/10000.
func SplitAmount(amount, feeBps uint64) (feeAmount, netAmount uint64, err error) {
	if feeBps > MaxFeeBps {
		return 0, 0, NewError(ErrInvalidFeeBps)
	}
	feeAmount = (amount/BpsDenominator)*feeBps + (amount%BpsDenominator)*feeBps/BpsDenominator
	if feeAmount > amount {
		return 0, 0, NewError(ErrMathOverflow)
	}
	return feeAmount, amount - feeAmount, nil
}

// ValidateID checks a merchant/payment identifier against program bounds.
func ValidateID(id string) bool {
	return id != "" && len(id) <= MaxIDLength
}
