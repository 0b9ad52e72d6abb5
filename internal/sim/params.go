package sim

// Params collects the tunable physical constants of the simulation.
// A World takes its own copy at construction, so two worlds can run with
// different tunings side by side.
type Params struct {
	// Integration
	FixedDeltaTime  float64
	DragCoefficient float64
	ThermalJitter   float64
	WorldBounce     float64
	WorldDepthMin   float64
	WorldDepthMax   float64
	MaxVelocity     float64

	// Spatial index
	GridCellSize float64

	// Bonding
	BondIdealDist      float64
	BondSpringK        float64
	BondBreakStress    float64
	BondAutoRange      float64
	BondDockingSpeed   float64
	BondAngleThreshold float64 // minimum slot alignment (dot product)
	ShieldReleaseTicks int     // bonding-scan cooldown after a shield drops

	// Electrostatics
	CoulombConstant float64
	MinCoulombDist  float64
	EMReach         float64
	ChargeThreshold float64

	// Rings
	RingSpringMultiplier    float64
	FormationPullMultiplier float64
	ZFlattenStrength        float64
	ZDamping                float64
	MinRingSize             int
	MinRingHops             int
	MaxRingHops             int

	// Folding and affinity
	AffinityMinDist          float64
	AffinityMaxDist          float64
	AffinityStrengthExternal float64
	AffinityStrengthInternal float64
	FoldingMinDist           float64
	FoldingMaxDist           float64
	FoldingStrength          float64
	ZoneActivityThreshold    float64 // minimum zone range multiplier for folding/affinity

	// Traversal safety cap. Exceeding it means the parent forest is
	// corrupted; it is a bug signal, not a tunable.
	MaxTraversalDepth int
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return Params{
		FixedDeltaTime:  1.0 / 60.0,
		DragCoefficient: 0.95,
		ThermalJitter:   2.5,
		WorldBounce:     -0.5,
		WorldDepthMin:   -300,
		WorldDepthMax:   300,
		MaxVelocity:     500,

		GridCellSize: 100,

		BondIdealDist:      42,
		BondSpringK:        8,
		BondBreakStress:    180,
		BondAutoRange:      55,
		BondDockingSpeed:   0.04,
		BondAngleThreshold: 0.6,
		ShieldReleaseTicks: 30,

		CoulombConstant: 2000,
		MinCoulombDist:  38,
		EMReach:         150,
		ChargeThreshold: 0.001,

		RingSpringMultiplier:    2.0,
		FormationPullMultiplier: 240,
		ZFlattenStrength:        20,
		ZDamping:                0.5,
		MinRingSize:             4,
		MinRingHops:             3,
		MaxRingHops:             6,

		AffinityMinDist:          30,
		AffinityMaxDist:          150,
		AffinityStrengthExternal: 15,
		AffinityStrengthInternal: 10,
		FoldingMinDist:           20,
		FoldingMaxDist:           300,
		FoldingStrength:          18,
		ZoneActivityThreshold:    1.2,

		MaxTraversalDepth: 100,
	}
}
