package aoa

// Event is an instantaneous node in an activity-on-arrow network.
type Event struct {
	ID         string  `json:"id" yaml:"id"`
	EET        float64 `json:"eet" yaml:"eet"` // earliest event time
	LET        float64 `json:"let" yaml:"let"` // latest event time
	IsCritical bool    `json:"is_critical" yaml:"is_critical"`
}

// Activity is an arrow between two events.
type Activity struct {
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"` // defaults to Name, then "from->to"
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	From     string  `json:"from" yaml:"from"`
	To       string  `json:"to" yaml:"to"`
	Duration float64 `json:"duration" yaml:"duration"`
	Dummy    bool    `json:"dummy,omitempty" yaml:"dummy,omitempty"` // zero-duration constraint arrow

	// Derived by Compute.
	TotalFloat float64 `json:"total_float" yaml:"total_float"`
	FreeFloat  float64 `json:"free_float" yaml:"free_float"`
	IsCritical bool    `json:"is_critical" yaml:"is_critical"`
}

// Result is a fully computed activity-on-arrow network.
type Result struct {
	Events          []Event    `json:"events"`
	Activities      []Activity `json:"activities"` // input order
	ProjectDuration float64    `json:"project_duration"`
	CriticalPath    []string   `json:"critical_path"` // critical non-dummy arrows by EET of their tail
}

// Config tunes a computation. The zero value is ready to use.
type Config struct {
	Tolerance float64
	// Events declares the event universe. When set, arrows may only connect
	// declared events and unconnected declared events are still reported.
	Events []string
}

// Event returns the event with the given id, or nil.
func (r *Result) Event(id string) *Event {
	for i := range r.Events {
		if r.Events[i].ID == id {
			return &r.Events[i]
		}
	}
	return nil
}

// Activity returns the first arrow with the given id, or nil.
func (r *Result) Activity(id string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i]
		}
	}
	return nil
}
