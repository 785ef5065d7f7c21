package event

import "time"

// Group is the audience an organizational event belongs to. Joint events
// additionally carry the list of participating groups.
type Group string

const (
	GroupYoungLife Group = "YoungLife"
	GroupWyldLife  Group = "WyldLife"
	GroupYLUni     Group = "YLUni"
	GroupInne      Group = "Inne"
	GroupJoint     Group = "Joint"
)

func (g Group) IsValid() bool {
	switch g {
	case GroupYoungLife, GroupWyldLife, GroupYLUni, GroupInne, GroupJoint:
		return true
	}
	return false
}

// Event is a one-off organizational calendar event.
type Event struct {
	Id    string
	Title string
	Start time.Time
	End   time.Time
	Group Group
	// Groups lists the participating groups of a joint event.
	Groups      []Group
	Description string
	Location    string
	Url         string
}
