package protocol

// ClientID identifies a connected client, or a bot.
type ClientID = uint64

// EntityID is the server-assigned network id of a replicated entity. It is
// never reused within a server run.
type EntityID = uint64

// Translation is a position with a depth layer in Z.
type Translation = [3]float32

// PlayerInput is the latest directional key state of a client. Sent on the
// Input channel; the last one received per tick wins.
type PlayerInput struct {
	Up    bool `msgpack:"up"`
	Down  bool `msgpack:"down"`
	Left  bool `msgpack:"left"`
	Right bool `msgpack:"right"`
}

type CommandKind uint8

const (
	CommandBasicAttack CommandKind = iota + 1
	CommandToggleReady
)

func (k CommandKind) String() string {
	switch k {
	case CommandBasicAttack:
		return "basic_attack"
	case CommandToggleReady:
		return "toggle_ready"
	}
	return "unknown"
}

// PlayerCommand is a one-shot action sent on the Command channel.
type PlayerCommand struct {
	Kind CommandKind `msgpack:"k"`
}

// MessageTag identifies the variant of a ServerMessage on the wire.
type MessageTag uint8

const (
	TagPlayerCreate MessageTag = iota + 1
	TagPlayerRemove
	TagSpawnProjectile
	TagSpawnGameObject
	TagSpawnCoin
	TagDespawnEntity
	TagSetPlayerReady
	TagStartGame
	TagEndGame
)

// ServerMessage is a lifecycle event sent reliably on the ServerMessages
// channel.
type ServerMessage interface {
	Tag() MessageTag
}

type PlayerCreate struct {
	Entity      EntityID    `msgpack:"entity"`
	ID          ClientID    `msgpack:"id"`
	Translation Translation `msgpack:"translation"`
	IsReady     bool        `msgpack:"is_ready"`
}

type PlayerRemove struct {
	ID ClientID `msgpack:"id"`
}

type SpawnProjectile struct {
	Entity      EntityID    `msgpack:"entity"`
	Translation Translation `msgpack:"translation"`
	Angle       float32     `msgpack:"angle"`
}

// SpawnGameObject announces a static world object. Kind selects the
// visual and the collider.
type SpawnGameObject struct {
	Kind        uint64      `msgpack:"id"`
	Translation Translation `msgpack:"translation"`
}

type SpawnCoin struct {
	Entity      EntityID    `msgpack:"entity"`
	Translation Translation `msgpack:"translation"`
}

type DespawnEntity struct {
	Entity EntityID `msgpack:"entity"`
}

type SetPlayerReady struct {
	Entity  EntityID `msgpack:"entity"`
	IsReady bool     `msgpack:"is_ready"`
}

type StartGame struct{}

// EndGame closes a timed round. Winner is only meaningful when HasWinner
// is set.
type EndGame struct {
	Winner    ClientID `msgpack:"winner"`
	Score     int64    `msgpack:"score"`
	HasWinner bool     `msgpack:"has_winner"`
}

func (PlayerCreate) Tag() MessageTag    { return TagPlayerCreate }
func (PlayerRemove) Tag() MessageTag    { return TagPlayerRemove }
func (SpawnProjectile) Tag() MessageTag { return TagSpawnProjectile }
func (SpawnGameObject) Tag() MessageTag { return TagSpawnGameObject }
func (SpawnCoin) Tag() MessageTag       { return TagSpawnCoin }
func (DespawnEntity) Tag() MessageTag   { return TagDespawnEntity }
func (SetPlayerReady) Tag() MessageTag  { return TagSetPlayerReady }
func (StartGame) Tag() MessageTag       { return TagStartGame }
func (EndGame) Tag() MessageTag         { return TagEndGame }

// NetworkedEntities is the per-tick snapshot of moving entities. All
// slices are parallel. Facing and Scores hold nil for entities that have
// no facing direction or score.
type NetworkedEntities struct {
	Tick         uint64        `msgpack:"tick"`
	Entities     []EntityID    `msgpack:"entities"`
	Translations []Translation `msgpack:"translations"`
	Facing       []*[2]float32 `msgpack:"facing"`
	Scores       []*int64      `msgpack:"scores"`
}

// Append adds one entity to the snapshot.
func (n *NetworkedEntities) Append(e EntityID, t Translation, facing *[2]float32, score *int64) {
	n.Entities = append(n.Entities, e)
	n.Translations = append(n.Translations, t)
	n.Facing = append(n.Facing, facing)
	n.Scores = append(n.Scores, score)
}

func (n *NetworkedEntities) Len() int { return len(n.Entities) }
