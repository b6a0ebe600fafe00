package models

// ConfidenceTier buckets the clarity score
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// ImpactTier grades availability damage
type ImpactTier string

const (
	ImpactLow      ImpactTier = "low"
	ImpactMedium   ImpactTier = "medium"
	ImpactHigh     ImpactTier = "high"
	ImpactCritical ImpactTier = "critical"
)

// TempoBucket classifies combined scoring rate against the league baseline
type TempoBucket string

const (
	TempoLow    TempoBucket = "low"
	TempoMedium TempoBucket = "medium"
	TempoHigh   TempoBucket = "high"
)

// SubSignal is one normalized signal: a categorical label, the side it
// favors, and how strongly
type SubSignal struct {
	Label     string  `json:"label"`
	Lean      Lean    `json:"lean"`
	Magnitude float64 `json:"magnitude"`
}

// TempoSignal carries the tempo bucket alongside the raw combined rate
type TempoSignal struct {
	Bucket       TempoBucket `json:"bucket"`
	CombinedRate float64     `json:"combined_rate"`
	Baseline     float64     `json:"baseline"`
}

// EfficiencyAspect names which side of the game drives an efficiency edge
type EfficiencyAspect string

const (
	AspectAttack  EfficiencyAspect = "attack"
	AspectDefense EfficiencyAspect = "defense"
)

// EfficiencySignal reports the advantaged side and the driving aspect
type EfficiencySignal struct {
	SubSignal
	Aspect EfficiencyAspect `json:"aspect"`
}

// AvailabilitySignal maps absences to an impact tier; the raw lists ride
// along for display but never feed back into the other signals
type AvailabilitySignal struct {
	SubSignal
	HomeImpact   ImpactTier `json:"home_impact"`
	AwayImpact   ImpactTier `json:"away_impact"`
	HomeAbsences []Absence  `json:"home_absences,omitempty"`
	AwayAbsences []Absence  `json:"away_absences,omitempty"`
}

// UniversalSignals is the sport-agnostic output of the signal normalizer
type UniversalSignals struct {
	Form         SubSignal          `json:"form"`
	StrengthEdge SubSignal          `json:"strength_edge"`
	Tempo        TempoSignal        `json:"tempo"`
	Efficiency   EfficiencySignal   `json:"efficiency"`
	Availability AvailabilitySignal `json:"availability"`

	// ClarityScore (0-100) measures how much usable data backed the
	// computation; Confidence is a monotonic function of it
	ClarityScore float64        `json:"clarity_score"`
	Confidence   ConfidenceTier `json:"confidence"`
}
