package engine

// EventKind identifies a loop event.
type EventKind int

// Loop events, in the order they can occur within a run.
const (
	EventSchemaFetched EventKind = iota
	EventGeneratorCalled
	EventCandidate
	EventExecuted
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventSchemaFetched:
		return "schema_fetched"
	case EventGeneratorCalled:
		return "generator_called"
	case EventCandidate:
		return "candidate"
	case EventExecuted:
		return "executed"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Step names for EventGeneratorCalled and EventCandidate.
const (
	StepGenerate = "generate"
	StepCorrect  = "correct"
)

// Event describes something the loop did. Only fields relevant to Kind are set.
type Event struct {
	RunID   string
	Kind    EventKind
	Step    string  // generate or correct
	Attempt int     // 1-based
	SQL     string  // candidate or executed statement
	Error   string  // execution error; empty on success
	Schema  string  // rendered schema
	Report  *Report // on EventFinished
}

// Observer receives loop events synchronously.
type Observer func(Event)

// MultiObserver fans events out to every non-nil observer in order.
func MultiObserver(observers ...Observer) Observer {
	return func(ev Event) {
		for _, o := range observers {
			if o != nil {
				o(ev)
			}
		}
	}
}
