package nav

// Profile is the GraphHopper travel profile used for round-trip requests
type Profile string

const (
	ProfileFoot Profile = "foot"
	ProfileHike Profile = "hike"
	ProfileBike Profile = "bike"
)

// DefaultProfile is the profile used if none is configured
const DefaultProfile = ProfileFoot

// DistanceUnit represents the unit of measurement for distances
type DistanceUnit string

const (
	UnitKilometers DistanceUnit = "km"
	UnitMiles      DistanceUnit = "mi"
)

// DefaultUnit is the default distance unit if none is specified
const DefaultUnit = UnitKilometers

// Method tells a caller where a route option came from
type Method string

const (
	MethodEngine   Method = "engine"
	MethodFallback Method = "fallback"
)

// InstructionKind is the category of a navigation instruction
type InstructionKind string

const (
	KindStraight   InstructionKind = "straight"
	KindBearLeft   InstructionKind = "bear_left"
	KindBearRight  InstructionKind = "bear_right"
	KindTurnLeft   InstructionKind = "turn_left"
	KindTurnRight  InstructionKind = "turn_right"
	KindSharpLeft  InstructionKind = "sharp_left"
	KindSharpRight InstructionKind = "sharp_right"
	KindArrive     InstructionKind = "arrive"
)

// Earth radius in kilometers
const earthRadiusKm = 6371.0

const metersPerMile = 1609.344

// defaultGraphHopperURL is used when only an API key is configured
const defaultGraphHopperURL = "https://graphhopper.com/api/1"

// IsValid checks if the profile is valid
func (p Profile) IsValid() bool {
	switch p {
	case ProfileFoot, ProfileHike, ProfileBike:
		return true
	default:
		return false
	}
}

// IsValid checks if the distance unit is valid
func (u DistanceUnit) IsValid() bool {
	switch u {
	case UnitKilometers, UnitMiles:
		return true
	default:
		return false
	}
}

// Icon returns the device icon name for the instruction kind
func (k InstructionKind) Icon() string {
	switch k {
	case KindBearLeft:
		return "left"
	case KindBearRight:
		return "right"
	case KindTurnLeft:
		return "Left"
	case KindTurnRight:
		return "Right"
	case KindSharpLeft:
		return "SharpLeft"
	case KindSharpRight:
		return "SharpRight"
	case KindArrive:
		return "Finish"
	default:
		return "Straight"
	}
}

// Text returns the human readable instruction for the kind
func (k InstructionKind) Text() string {
	switch k {
	case KindBearLeft:
		return "Bear left"
	case KindBearRight:
		return "Bear right"
	case KindTurnLeft:
		return "Turn left"
	case KindTurnRight:
		return "Turn right"
	case KindSharpLeft:
		return "Sharp left"
	case KindSharpRight:
		return "Sharp right"
	case KindArrive:
		return "Arrive at start"
	default:
		return "Continue straight"
	}
}
