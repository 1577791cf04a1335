package domain

// Action enumerates what a simulated recipient ultimately did with an email.
type Action string

const (
	ActionOpened  Action = "opened"
	ActionIgnored Action = "ignored"
	ActionSpam    Action = "spam"
	ActionClicked Action = "clicked"
	ActionReplied Action = "replied"
)

// Sentiment enumerates the tone of a simulated recipient's reaction.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// InsightType enumerates the flavor of a campaign insight.
type InsightType string

const (
	InsightPositive InsightType = "positive"
	InsightNegative InsightType = "negative"
	InsightWarning  InsightType = "warning"
)

// CoerceAction normalizes a raw model-produced action string against an
// allowed set, falling back to def when the value is not in the set. Model
// output is untrusted free text so every phase boundary goes through this.
func CoerceAction(raw string, def Action, allowed ...Action) Action {
	for _, a := range allowed {
		if string(a) == raw {
			return a
		}
	}
	return def
}

// Draft is the email content under test. Immutable input to a simulation run.
type Draft struct {
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	CTA        string `json:"cta"`
	Audience   string `json:"audience"`
	SampleSize int    `json:"sample_size"`
}

// Persona is a synthetic recipient profile used as simulated email-recipient
// context. Owned by the persona provider; the engine never mutates one.
type Persona struct {
	ID             string `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	Role           string `json:"role" db:"role"`
	Company        string `json:"company" db:"company"`
	Avatar         string `json:"avatar" db:"avatar"`
	Psychographics string `json:"psychographics" db:"psychographics"`
	PastBehavior   string `json:"pastBehavior" db:"past_behavior"`
}

// Audience is a named group of personas.
type Audience struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Type        string `json:"type" db:"type"` // "B2B", "B2C", ...
	Description string `json:"description" db:"description"`
	Size        int    `json:"size" db:"size"`
}

// Response is one persona's reaction to a draft. Created exactly once per
// persona per run.
type Response struct {
	Persona           Persona   `json:"persona"`
	Action            Action    `json:"action"`
	Sentiment         Sentiment `json:"sentiment"`
	Comment           string    `json:"comment"`
	DetailedReasoning string    `json:"detailedReasoning"`
}

// Insight is a short qualitative explanation of simulated campaign
// performance.
type Insight struct {
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
}

// Metrics holds the seven derived rate percentages for a run, each in
// [0,100]. Never set directly, always derived via ComputeMetrics.
type Metrics struct {
	OpenRate    int `json:"openRate"`
	ClickRate   int `json:"clickRate"`
	ReplyRate   int `json:"replyRate"`
	SpamRate    int `json:"spamRate"`
	IgnoreRate  int `json:"ignoreRate"`
	ForwardRate int `json:"forwardRate"`
	ReadRate    int `json:"readRate"`
}

// Counts holds the raw per-category tallies accumulated during a run.
type Counts struct {
	Opened  int
	Clicked int
	Replied int
	Spam    int
	Ignored int
	Read    int
	Forward int
}

// Tally updates the counts for one response. Clicked and replied personas
// necessarily opened the email first, so they count toward Opened as well.
// Read covers any action where the persona actually saw the body. Forward is
// tracked separately by the engine because it is a subset of clicks, not an
// action of its own.
func (c *Counts) Tally(action Action) {
	switch action {
	case ActionOpened:
		c.Opened++
	case ActionClicked:
		c.Clicked++
		c.Opened++
	case ActionReplied:
		c.Replied++
		c.Opened++
	case ActionSpam:
		c.Spam++
	case ActionIgnored:
		c.Ignored++
	}
	if action == ActionOpened || action == ActionClicked || action == ActionReplied {
		c.Read++
	}
}

// ComputeMetrics derives the seven rates from counts over total personas.
// Each rate is count*100/total truncated toward zero. All rates are 0 for an
// empty run; division by zero is impossible by construction.
func ComputeMetrics(c Counts, total int) Metrics {
	if total <= 0 {
		return Metrics{}
	}
	rate := func(n int) int { return n * 100 / total }
	return Metrics{
		OpenRate:    rate(c.Opened),
		ClickRate:   rate(c.Clicked),
		ReplyRate:   rate(c.Replied),
		SpamRate:    rate(c.Spam),
		IgnoreRate:  rate(c.Ignored),
		ForwardRate: rate(c.Forward),
		ReadRate:    rate(c.Read),
	}
}

// SimulationResult is the immutable outcome of one completed run. Ownership
// transfers to the persistence layer once constructed.
type SimulationResult struct {
	ID        string     `json:"id"`
	Timestamp int64      `json:"timestamp"` // run-start time, unix millis
	Metrics   Metrics    `json:"metrics"`
	Insights  []Insight  `json:"insights"`
	Responses []Response `json:"responses"`
}
