package domain

// Position identifies a player's role on the pitch.
type Position string

// Position constants.
const (
	PositionGoalkeeper Position = "GKP"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

// AllPositions lists every valid position in a stable order.
var AllPositions = []Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionForward,
}

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	switch p {
	case PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward:
		return true
	}
	return false
}

// StarterStatus classifies a player's expected involvement for a gameweek.
type StarterStatus string

// StarterStatus constants.
const (
	StarterConfirmed StarterStatus = "STARTER"
	StarterRotation  StarterStatus = "ROTATION"
	StarterBench     StarterStatus = "BENCH"
	StarterOut       StarterStatus = "OUT"
	StarterUnknown   StarterStatus = "UNKNOWN"
)

// Valid reports whether s is a known starter status.
func (s StarterStatus) Valid() bool {
	switch s {
	case StarterConfirmed, StarterRotation, StarterBench, StarterOut, StarterUnknown:
		return true
	}
	return false
}
