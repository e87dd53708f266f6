package engine

// CommandType identifies an instruction from outside the simulation.
type CommandType string

const (
	CommandJoin     CommandType = "JOIN"      // a bearer enters the arena
	CommandLeave    CommandType = "LEAVE"     // a bearer disconnects or quits
	CommandMove     CommandType = "MOVE"      // client-reported bearer position
	CommandBeamHit  CommandType = "BEAM_HIT"  // a beam touched a shade
	CommandCaught   CommandType = "CAUGHT"    // a shade reached a bearer
	CommandSkipWait CommandType = "SKIP_WAIT" // open the spawn gate early
)

// Command is one instruction for the World, applied between ticks in
// arrival order. BearerID is stamped by the session that sent it, never
// taken from the wire payload.
type Command struct {
	Type     CommandType
	BearerID string
	Name     string  // JOIN only
	X        float64 // MOVE only
	Y        float64
	Z        float64
	ShadeID  string // BEAM_HIT and CAUGHT
}
