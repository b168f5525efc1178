package domain

// SearchKind separates filing entities from legislators in mixed results.
type SearchKind string

const (
	SearchKindEntity SearchKind = "entity"
	SearchKindPerson SearchKind = "person"
)

type SearchResult struct {
	Kind     SearchKind
	ID       int64
	Name     string
	Subtitle string
	Party    string
}
