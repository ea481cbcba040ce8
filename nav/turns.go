package nav

import "math"

// ExtractTurns scans a route once and returns the points where its direction
// changes by more than cfg.ThresholdDeg, at least cfg.MinSpacingM apart.
// The incoming bearing at i is taken from i-L to i and the outgoing from i to
// i+L, with L = cfg.LookAhead, which smooths out single noisy vertices.
func ExtractTurns(route Route, cfg TurnConfig) []TurnPoint {
	points := route.Points
	look := cfg.LookAhead
	if look < 1 {
		look = 1
	}

	var turns []TurnPoint
	cum := 0.0
	lastTurnM := 0.0
	for i := 1; i < len(points); i++ {
		cum += DistanceM(points[i-1].GeoPoint, points[i].GeoPoint)
		if i < look || i+look >= len(points) {
			continue
		}

		in := BearingDeg(points[i-look].GeoPoint, points[i].GeoPoint)
		out := BearingDeg(points[i].GeoPoint, points[i+look].GeoPoint)
		angle := normalizeAngle(out - in)

		if math.Abs(angle) <= cfg.ThresholdDeg || cum-lastTurnM <= cfg.MinSpacingM {
			continue
		}

		kind := classifyTurn(angle, cfg)
		turns = append(turns, TurnPoint{
			Index:              i,
			TurnAngleDeg:       angle,
			Instruction:        instructionFor(kind),
			DistanceFromStartM: cum,
		})
		lastTurnM = cum
	}
	return turns
}

// classifyTurn maps a signed turn angle (positive right) onto an instruction band
func classifyTurn(angle float64, cfg TurnConfig) InstructionKind {
	abs := math.Abs(angle)
	right := angle > 0
	switch {
	case abs < cfg.StraightDeg:
		return KindStraight
	case abs < cfg.BearDeg:
		if right {
			return KindBearRight
		}
		return KindBearLeft
	case abs < cfg.TurnDeg:
		if right {
			return KindTurnRight
		}
		return KindTurnLeft
	default:
		if right {
			return KindSharpRight
		}
		return KindSharpLeft
	}
}

func instructionFor(kind InstructionKind) Instruction {
	return Instruction{Kind: kind, Text: kind.Text(), Icon: kind.Icon()}
}
