// Package simulation produces decorative company-participation figures for
// the results page. The numbers are random, carry no meaning and must never
// feed into a match calculation.
package simulation

import (
	"math/rand/v2"
	"sync"

	"github.com/iwvelando/qslp-calculator/pkg/mathutil"
)

const (
	minParticipants   = 10
	participantSpread = 50
	minEmployees      = 100
	employeeSpread    = 200
)

// Participation is simulated display data.
type Participation struct {
	Participants   int     `json:"participants" yaml:"participants"`
	TotalEmployees int     `json:"totalEmployees" yaml:"totalEmployees"`
	RatePercent    float64 `json:"ratePercent" yaml:"ratePercent"`
	Simulated      bool    `json:"simulated" yaml:"simulated"`
}

// Simulator generates Participation values from a random source. It is safe
// for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a simulator. A nil source uses a randomly seeded PCG.
func NewSimulator(src rand.Source) *Simulator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Simulator{rng: rand.New(src)}
}

// Generate returns participants in [10, 59] out of [100, 299] employees.
func (s *Simulator) Generate() Participation {
	s.mu.Lock()
	defer s.mu.Unlock()

	participants := minParticipants + s.rng.IntN(participantSpread)
	employees := minEmployees + s.rng.IntN(employeeSpread)
	return Participation{
		Participants:   participants,
		TotalEmployees: employees,
		RatePercent:    mathutil.CalculatePercentage(float64(participants), float64(employees)),
		Simulated:      true,
	}
}
