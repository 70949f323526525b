package protocol

import "time"

// ProtocolID must match between client and server for a connection to be
// accepted.
const ProtocolID uint64 = 7

// ClientChannel carries client to server traffic.
type ClientChannel uint8

const (
	ChannelCommand ClientChannel = iota
	ChannelInput
)

// ServerChannel carries server to client traffic.
type ServerChannel uint8

const (
	ChannelNetworkedEntities ServerChannel = iota
	ChannelServerMessages
)

func (c ClientChannel) String() string {
	switch c {
	case ChannelCommand:
		return "command"
	case ChannelInput:
		return "input"
	}
	return "unknown"
}

func (c ServerChannel) String() string {
	switch c {
	case ChannelNetworkedEntities:
		return "networked_entities"
	case ChannelServerMessages:
		return "server_messages"
	}
	return "unknown"
}

type SendType uint8

const (
	Unreliable SendType = iota
	ReliableOrdered
)

func (s SendType) Reliable() bool { return s == ReliableOrdered }

// ChannelConfig describes the delivery guarantee and memory budget of a
// channel.
type ChannelConfig struct {
	ID                  uint8
	SendType            SendType
	ResendTime          time.Duration
	MaxMemoryUsageBytes int
}

// ConnectionConfig bundles the channel tables and the per-tick send budget.
type ConnectionConfig struct {
	AvailableBytesPerTick int
	ClientChannels        []ChannelConfig
	ServerChannels        []ChannelConfig
}

const mb = 1024 * 1024

// DefaultConnectionConfig returns the configuration shared by client and
// server.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		AvailableBytesPerTick: 1 * mb,
		ClientChannels: []ChannelConfig{
			{ID: uint8(ChannelCommand), SendType: ReliableOrdered, ResendTime: 0, MaxMemoryUsageBytes: 5 * mb},
			{ID: uint8(ChannelInput), SendType: ReliableOrdered, ResendTime: 0, MaxMemoryUsageBytes: 5 * mb},
		},
		ServerChannels: []ChannelConfig{
			{ID: uint8(ChannelNetworkedEntities), SendType: Unreliable, MaxMemoryUsageBytes: 10 * mb},
			{ID: uint8(ChannelServerMessages), SendType: ReliableOrdered, ResendTime: 200 * time.Millisecond, MaxMemoryUsageBytes: 10 * mb},
		},
	}
}

// ServerChannel looks up the configuration of a server channel.
func (c ConnectionConfig) ServerChannel(ch ServerChannel) (ChannelConfig, bool) {
	return lookup(c.ServerChannels, uint8(ch))
}

// ClientChannel looks up the configuration of a client channel.
func (c ConnectionConfig) ClientChannel(ch ClientChannel) (ChannelConfig, bool) {
	return lookup(c.ClientChannels, uint8(ch))
}

func lookup(chs []ChannelConfig, id uint8) (ChannelConfig, bool) {
	for _, c := range chs {
		if c.ID == id {
			return c, true
		}
	}
	return ChannelConfig{}, false
}
