package hardware

// ChannelID identifies a physical pulse output. Mapping it onto a timer or
// pin is the sink's business.
type ChannelID uint8

// PulseSink accepts an 8 bit duty value for a channel. Implementations must
// accept any value and must not block the caller.
type PulseSink interface {
	Write(ch ChannelID, duty uint8)
}

// SinkFunc adapts a plain function to PulseSink.
type SinkFunc func(ch ChannelID, duty uint8)

func (f SinkFunc) Write(ch ChannelID, duty uint8) {
	f(ch, duty)
}

type discardSink struct{}

func (discardSink) Write(ChannelID, uint8) {}

var _ PulseSink = discardSink{}
