package types

import (
	"fmt"

	"github.com/spacemeshos/go-scale"

	"github.com/ledgermesh/go-ledgermesh/p2p"
)

const maxPeerIDLen = 128

// EncodeScale implements scale codec interface.
func (c *Consumed) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := c.Entry.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := c.Prev.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (c *Consumed) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := c.Entry.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := c.Prev.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// EncodeScale implements scale codec interface.
func (p *Produced) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := p.Entry.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, p.Payload, 4096)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (p *Produced) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := p.Entry.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, 4096)
		if err != nil {
			return total, err
		}
		total += n
		p.Payload = field
	}
	return total, nil
}

// EncodeScale implements scale codec interface. Parties are peer ids,
// which are variable-length strings on the wire.
func (b *TransactionBody) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact32(enc, uint32(len(b.Parties)))
		if err != nil {
			return total, err
		}
		total += n
	}
	for i := range b.Parties {
		n, err := scale.EncodeStringWithLimit(enc, string(b.Parties[i]), maxPeerIDLen)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, b.Inputs, MaxEntries)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, b.Outputs, MaxEntries)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, b.Nonce)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (b *TransactionBody) DecodeScale(dec *scale.Decoder) (total int, err error) {
	var parties uint32
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		parties = field
	}
	if parties > MaxParties {
		return total, fmt.Errorf("decode parties: %d exceeds limit %d", parties, MaxParties)
	}
	b.Parties = make([]p2p.Peer, 0, parties)
	for i := uint32(0); i < parties; i++ {
		field, n, err := scale.DecodeStringWithLimit(dec, maxPeerIDLen)
		if err != nil {
			return total, err
		}
		total += n
		b.Parties = append(b.Parties, p2p.Peer(field))
	}
	{
		field, n, err := scale.DecodeStructSliceWithLimit[Consumed](dec, MaxEntries)
		if err != nil {
			return total, err
		}
		total += n
		b.Inputs = field
	}
	{
		field, n, err := scale.DecodeStructSliceWithLimit[Produced](dec, MaxEntries)
		if err != nil {
			return total, err
		}
		total += n
		b.Outputs = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		b.Nonce = field
	}
	return total, nil
}

// EncodeScale implements scale codec interface.
func (t *Transaction) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := t.Body.EncodeScale(enc)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, t.Signatures, MaxParties)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *Transaction) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		n, err := t.Body.DecodeScale(dec)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeStructSliceWithLimit[EdSignature](dec, MaxParties)
		if err != nil {
			return total, err
		}
		total += n
		t.Signatures = field
	}
	return total, nil
}
