package rates

import "github.com/tomhutton/strata/internal/codec"

// RegisterCodec declares the currency slice's closed action set on a
// codec so journaled and scenario-loaded actions can be rebuilt.
func RegisterCodec(c *codec.Codec) {
	c.MustRegister(KindChange, codec.Typed[ChangeCurrency]())
	c.MustRegister(KindLoad, codec.Typed[LoadRates]())
	c.MustRegister(KindLoaded, codec.Typed[RatesLoaded]())
	c.MustRegister(KindFailed, codec.Typed[RatesFailed]())
}
