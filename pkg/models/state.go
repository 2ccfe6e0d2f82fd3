package models

import "sort"

// DefaultPollInterval is used when a filter carries no positive interval.
const DefaultPollInterval = 120

// Filter is the operator-configured search criteria
type Filter struct {
	Organizations []string `json:"organizations" yaml:"organizations"` // org or user names
	Languages     []string `json:"languages" yaml:"languages"`
	PollInterval  int      `json:"polling_interval" yaml:"polling_interval"` // seconds
}

// Normalize replaces nil lists with empty ones and a non-positive interval
// with DefaultPollInterval.
func (f *Filter) Normalize() {
	if f.Organizations == nil {
		f.Organizations = []string{}
	}
	if f.Languages == nil {
		f.Languages = []string{}
	}
	if f.PollInterval <= 0 {
		f.PollInterval = DefaultPollInterval
	}
}

// NotificationTarget is where new items are delivered. An empty WebhookURL
// disables notifications.
type NotificationTarget struct {
	WebhookURL string `json:"webhook_url"`
}

// Enabled reports whether a webhook is configured
func (t NotificationTarget) Enabled() bool {
	return t.WebhookURL != ""
}

// State is the authoritative record shared by the control API and the poll loop
type State struct {
	Filter    Filter
	Target    NotificationTarget
	Active    bool
	SeenIDs   map[int64]struct{}
	LastFetch []Item
}

// NewState returns the default state: empty filter, no target, inactive.
func NewState() *State {
	s := &State{}
	s.Normalize()
	return s
}

// Normalize fills in empty collections so that freshly loaded and freshly
// constructed states compare equal.
func (s *State) Normalize() {
	s.Filter.Normalize()
	if s.SeenIDs == nil {
		s.SeenIDs = make(map[int64]struct{})
	}
	if s.LastFetch == nil {
		s.LastFetch = []Item{}
	}
}

// HasSeen reports whether id was already reported
func (s *State) HasSeen(id int64) bool {
	_, ok := s.SeenIDs[id]
	return ok
}

// MarkSeen records id as reported
func (s *State) MarkSeen(id int64) {
	s.SeenIDs[id] = struct{}{}
}

// SeenList returns the seen ids in ascending order
func (s *State) SeenList() []int64 {
	ids := make([]int64, 0, len(s.SeenIDs))
	for id := range s.SeenIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a deep copy that shares no memory with s
func (s *State) Clone() *State {
	c := &State{
		Filter: Filter{
			Organizations: append([]string{}, s.Filter.Organizations...),
			Languages:     append([]string{}, s.Filter.Languages...),
			PollInterval:  s.Filter.PollInterval,
		},
		Target:    s.Target,
		Active:    s.Active,
		SeenIDs:   make(map[int64]struct{}, len(s.SeenIDs)),
		LastFetch: make([]Item, len(s.LastFetch)),
	}
	for id := range s.SeenIDs {
		c.SeenIDs[id] = struct{}{}
	}
	for i, it := range s.LastFetch {
		c.LastFetch[i] = it.clone()
	}
	return c
}
