package ledger

import "github.com/tomhutton/strata/internal/codec"

// RegisterCodec declares the ledger's closed action set on a codec so
// journaled and scenario-loaded ledger actions can be rebuilt.
func RegisterCodec(c *codec.Codec) {
	c.MustRegister(KindAdd, codec.Typed[Add]())
	c.MustRegister(KindRemove, codec.Typed[Remove]())
	c.MustRegister(KindUpdate, codec.Typed[Update]())
}
