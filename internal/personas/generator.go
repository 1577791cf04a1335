package personas

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/emberline/inboxsim/internal/domain"
)

var roles = []string{
	"CTO",
	"Marketing Manager",
	"CEO",
	"Sales Director",
	"HR Director",
	"Developer",
}

var industries = []string{
	"FinTech", "EdTech", "E-commerce", "SaaS", "AgroTech", "MedTech",
}

var psychographics = []string{
	"Pragmatist, values brevity and hard numbers.",
	"Visionary, always hunting for growth opportunities.",
	"Skeptic, demands proof and case studies.",
	"Early adopter, loves trying new tools.",
	"Conservative, prefers proven solutions.",
}

var avatars = []string{"👨‍💻", "👩‍💼", "🤵", "👷", "👩‍🎨", "🦸‍♂️"}

var firstNames = []string{
	"Alex", "Maria", "James", "Elena", "Viktor", "Sophia",
	"Daniel", "Olga", "Michael", "Anna", "Pavel", "Laura",
}

var lastNames = []string{
	"Morgan", "Petrov", "Chen", "Silva", "Novak", "Fischer",
	"Kovacs", "Larsen", "Romano", "Ivanova", "Dubois", "Tanaka",
}

var companySuffixes = []string{"Labs", "Group", "Systems", "Digital", "Partners", "Works"}

// Generator produces synthetic personas when no stored corpus is
// available. Seeded so the fallback population is reproducible.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate creates n synthetic personas.
func (g *Generator) Generate(n int) []domain.Persona {
	out := make([]domain.Persona, 0, n)
	for i := 0; i < n; i++ {
		industry := industries[g.rng.Intn(len(industries))]
		name := firstNames[g.rng.Intn(len(firstNames))] + " " + lastNames[g.rng.Intn(len(lastNames))]
		out = append(out, domain.Persona{
			ID:             uuid.New().String(),
			Name:           name,
			Role:           roles[g.rng.Intn(len(roles))],
			Company:        fmt.Sprintf("%s %s (%s)", lastNames[g.rng.Intn(len(lastNames))], companySuffixes[g.rng.Intn(len(companySuffixes))], industry),
			Avatar:         avatars[g.rng.Intn(len(avatars))],
			Psychographics: psychographics[g.rng.Intn(len(psychographics))],
			PastBehavior:   fmt.Sprintf("Often opens emails about %s, but rarely replies.", industry),
		})
	}
	return out
}
