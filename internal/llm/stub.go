package llm

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

// Stub is the deterministic offline provider. It recognizes which decision
// phase a prompt belongs to by its task wording and answers with a
// fixed-shape JSON stub whose field values are drawn from a seeded RNG, so
// a given seed always yields the same run.
type Stub struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStub creates a stub provider with the given RNG seed.
func NewStub(seed int64) *Stub {
	return &Stub{rng: rand.New(rand.NewSource(seed))}
}

// Complete implements Provider. It never fails.
func (s *Stub) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "checking your inbox"):
		return s.scanResponse(), nil
	case strings.Contains(lower, "call to action"):
		return s.actionResponse(), nil
	case strings.Contains(lower, "simulation results"):
		return s.insightResponse(), nil
	}
	return "{}", nil
}

func (s *Stub) scanResponse() string {
	// Opened twice as likely as the alternatives, mirroring a healthy list.
	actions := []string{"opened", "opened", "ignored", "spam"}
	action := actions[s.rng.Intn(len(actions))]
	reason := "Subject line was catchy"
	if s.rng.Float64() > 0.5 {
		reason = "Subject looked generic"
	}
	return fmt.Sprintf(
		`{"action": %q, "reason": %q, "thought_process": "Scanning the inbox between meetings."}`,
		action, reason)
}

func (s *Stub) actionResponse() string {
	finals := []string{"clicked", "replied", "opened"}
	final := finals[s.rng.Intn(len(finals))]
	reply := ""
	if final == "replied" {
		reply = "Thanks, this looks relevant. Can you send pricing?"
	}
	return fmt.Sprintf(
		`{"final_action": %q, "reply_text": %q, "internal_monologue": "I might actually need this right now."}`,
		final, reply)
}

func (s *Stub) insightResponse() string {
	return `{"insights": [
		{"type": "positive", "title": "Subject resonates", "description": "The subject line matched what this audience cares about."},
		{"type": "warning", "title": "CTA buried", "description": "Several personas read the email but missed the call to action."},
		{"type": "negative", "title": "Generic opening", "description": "The first paragraph reads like mass mail and cost attention."}
	]}`
}
