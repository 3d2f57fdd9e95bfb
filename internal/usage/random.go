package usage

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// HashSeed is a 31-based polynomial rolling hash accumulated in a signed 32-bit
// integer; the absolute value is returned.
func HashSeed(s string) int64 {
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Random is the seeded linear congruential generator shared by every deterministic path
type Random struct {
	state int64
}

// NewRandom creates a generator whose sequence is fully determined by seed
func NewRandom(seed int64) *Random {
	if seed < 0 {
		seed = -seed
	}
	return &Random{state: seed % lcgModulus}
}

// Float64 advances the state and returns a value in [0,1)
func (r *Random) Float64() float64 {
	r.state = (r.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(r.state) / lcgModulus
}

// Intn returns a value in [0,n)
func (r *Random) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Float64() * float64(n))
}

// Between returns a value in [lo,hi)
func (r *Random) Between(lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
