package models

import (
	"encoding/json"
	"strings"
	"time"
)

// apiRepoPrefix is the prefix GitHub puts in front of owner/name in repository_url.
const apiRepoPrefix = "https://api.github.com/repos/"

// Item represents one issue returned by the search API. Fields are passed
// through as received; only ID is ever interpreted. Members without a typed
// field (comments, assignees, pull_request, ...) are kept in Extra and written
// back out unchanged.
type Item struct {
	ID            int64     `json:"id"`
	Number        int       `json:"number"`
	Title         string    `json:"title"`
	HTMLURL       string    `json:"html_url"`
	RepositoryURL string    `json:"repository_url"`
	State         string    `json:"state"` // "open" or "closed"
	Body          string    `json:"body"`
	Labels        []Label   `json:"labels"`
	User          User      `json:"user"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Extra map[string]json.RawMessage `json:"-"`
}

var itemKeys = []string{
	"id", "number", "title", "html_url", "repository_url", "state",
	"body", "labels", "user", "created_at", "updated_at",
}

// User is the issue author
type User struct {
	Login string `json:"login"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Label is a label attached to an issue
type Label struct {
	Name string `json:"name"`

	Extra map[string]json.RawMessage `json:"-"`
}

// HasID reports whether the item carries a usable identifier.
// GitHub ids start at 1, so the zero value means the field was absent.
func (i *Item) HasID() bool {
	return i.ID > 0
}

// RepoFullName returns owner/name derived from repository_url
func (i *Item) RepoFullName() string {
	return strings.TrimPrefix(i.RepositoryURL, apiRepoPrefix)
}

func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownMembers(data, itemKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	*i = Item(p)
	return nil
}

func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	typed, err := json.Marshal(plain(i))
	if err != nil {
		return nil, err
	}
	return withMembers(typed, i.Extra)
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownMembers(data, []string{"login"})
	if err != nil {
		return err
	}
	p.Extra = extra
	*u = User(p)
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	typed, err := json.Marshal(plain(u))
	if err != nil {
		return nil, err
	}
	return withMembers(typed, u.Extra)
}

func (l *Label) UnmarshalJSON(data []byte) error {
	type plain Label
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownMembers(data, []string{"name"})
	if err != nil {
		return err
	}
	p.Extra = extra
	*l = Label(p)
	return nil
}

func (l Label) MarshalJSON() ([]byte, error) {
	type plain Label
	typed, err := json.Marshal(plain(l))
	if err != nil {
		return nil, err
	}
	return withMembers(typed, l.Extra)
}

// unknownMembers returns the object members of data not named in known.
// It returns nil when there are none.
func unknownMembers(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// withMembers adds extra to the encoded object typed. Typed members win.
func withMembers(typed []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return typed, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(typed, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

func cloneMembers(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		c[k] = append(json.RawMessage(nil), v...)
	}
	return c
}

// clone returns a deep copy of the item
func (i Item) clone() Item {
	c := i
	c.Extra = cloneMembers(i.Extra)
	c.User.Extra = cloneMembers(i.User.Extra)
	if i.Labels != nil {
		c.Labels = make([]Label, len(i.Labels))
		for j, l := range i.Labels {
			l.Extra = cloneMembers(l.Extra)
			c.Labels[j] = l
		}
	}
	return c
}
