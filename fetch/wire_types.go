package fetch

import (
	"fmt"

	"github.com/spacemeshos/go-scale"

	"github.com/ledgermesh/go-ledgermesh/common/types"
)

const (
	// MaxIDSet caps the number of transaction ids exchanged in a single
	// id set request or response.
	MaxIDSet = 100000
	// MaxTxBatch caps the number of transactions requested or returned
	// in a single transactions request.
	MaxTxBatch = 1000
	// MaxTxSize caps the encoded size of a single transaction.
	MaxTxSize = 1 << 21
)

// IDSetRequest carries the sender's ids of transactions involving both
// the sender and the receiver. The receiver answers with its own set so
// that either side can compute what the other is missing.
type IDSetRequest struct {
	IDs []types.TransactionID
}

// EncodeScale implements scale codec interface.
func (r *IDSetRequest) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, r.IDs, MaxIDSet)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (r *IDSetRequest) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStructSliceWithLimit[types.TransactionID](dec, MaxIDSet)
		if err != nil {
			return total, err
		}
		total += n
		r.IDs = field
	}
	return total, nil
}

// IDSetResponse carries the responder's ids of transactions involving
// both peers.
type IDSetResponse struct {
	IDs []types.TransactionID
}

// EncodeScale implements scale codec interface.
func (r *IDSetResponse) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, r.IDs, MaxIDSet)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (r *IDSetResponse) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStructSliceWithLimit[types.TransactionID](dec, MaxIDSet)
		if err != nil {
			return total, err
		}
		total += n
		r.IDs = field
	}
	return total, nil
}

// TxRequest asks a peer for the full transactions with the given ids.
type TxRequest struct {
	IDs []types.TransactionID
}

// EncodeScale implements scale codec interface.
func (r *TxRequest) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, r.IDs, MaxTxBatch)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (r *TxRequest) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStructSliceWithLimit[types.TransactionID](dec, MaxTxBatch)
		if err != nil {
			return total, err
		}
		total += n
		r.IDs = field
	}
	return total, nil
}

// TxResponse returns the stored encodings of the transactions the peer
// holds. Requested ids the peer does not hold are simply omitted. Blobs
// are served as stored and decoded by the requester, which validates
// them against the requested content ids.
type TxResponse struct {
	Blobs [][]byte
}

// EncodeScale implements scale codec interface.
func (r *TxResponse) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact32(enc, uint32(len(r.Blobs)))
		if err != nil {
			return total, err
		}
		total += n
	}
	for _, blob := range r.Blobs {
		n, err := scale.EncodeByteSliceWithLimit(enc, blob, MaxTxSize)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (r *TxResponse) DecodeScale(dec *scale.Decoder) (total int, err error) {
	var count uint32
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		count = field
	}
	if count > MaxTxBatch {
		return total, fmt.Errorf("decode transactions: %d exceeds limit %d", count, MaxTxBatch)
	}
	r.Blobs = make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		field, n, err := scale.DecodeByteSliceWithLimit(dec, MaxTxSize)
		if err != nil {
			return total, err
		}
		total += n
		r.Blobs = append(r.Blobs, field)
	}
	return total, nil
}

// PeekRequest asks a peer which of the given transactions it holds,
// without transferring them.
type PeekRequest struct {
	IDs []types.TransactionID
}

// EncodeScale implements scale codec interface.
func (r *PeekRequest) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, r.IDs, MaxIDSet)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (r *PeekRequest) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStructSliceWithLimit[types.TransactionID](dec, MaxIDSet)
		if err != nil {
			return total, err
		}
		total += n
		r.IDs = field
	}
	return total, nil
}

// PeekResponse lists the subset of requested ids the peer holds.
type PeekResponse struct {
	Have []types.TransactionID
}

// EncodeScale implements scale codec interface.
func (r *PeekResponse) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, r.Have, MaxIDSet)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (r *PeekResponse) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStructSliceWithLimit[types.TransactionID](dec, MaxIDSet)
		if err != nil {
			return total, err
		}
		total += n
		r.Have = field
	}
	return total, nil
}
