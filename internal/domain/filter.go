package domain

import "strings"

// FilterAll disables an equality dimension of TicketFilter.
const FilterAll = "all"

// FilterUnassigned matches tickets with no technician.
const FilterUnassigned = "unassigned"

// TicketFilter narrows the dashboard view. Empty or "all" means no
// constraint on that dimension.
type TicketFilter struct {
	Search          string
	Status          string
	Priority        string
	AssignedTo      string
	Department      string
	Location        string
	ShowAIResolved  bool
	AIGeneratedOnly bool
}

// DefaultTicketFilter shows everything.
func DefaultTicketFilter() TicketFilter {
	return TicketFilter{
		Status:         FilterAll,
		Priority:       FilterAll,
		AssignedTo:     FilterAll,
		Department:     FilterAll,
		Location:       FilterAll,
		ShowAIResolved: true,
	}
}

// Matches reports whether a ticket passes every dimension of the filter.
func (f TicketFilter) Matches(t Ticket) bool {
	if !constraintMatches(f.Status, string(t.Status())) {
		return false
	}
	if !constraintMatches(f.Priority, string(t.Priority)) {
		return false
	}
	if !constraintMatches(f.Department, t.Department) {
		return false
	}
	if !constraintMatches(f.Location, t.Location) {
		return false
	}
	if !f.assigneeMatches(t) {
		return false
	}
	if !f.ShowAIResolved && t.Status() == TicketStatusAIResolved {
		return false
	}
	if f.AIGeneratedOnly && !t.IsAIGenerated {
		return false
	}
	return searchMatches(f.Search, t)
}

// Apply returns the tickets matching f in their original order. The input
// slice is never modified.
func (f TicketFilter) Apply(tickets []Ticket) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (f TicketFilter) assigneeMatches(t Ticket) bool {
	switch strings.TrimSpace(f.AssignedTo) {
	case "", FilterAll:
		return true
	case FilterUnassigned:
		return !t.Assigned()
	}
	return t.Assigned() && *t.AssignedTo == f.AssignedTo
}

func constraintMatches(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" || want == FilterAll {
		return true
	}
	return want == got
}

func searchMatches(term string, t Ticket) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	fields := []string{t.ID, t.Title, t.Description}
	if t.AssignedTo != nil {
		fields = append(fields, *t.AssignedTo)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
