package model

// Repository is a GitHub repository as returned by the starred-repositories
// listing. Only FullName takes part in neighbour discovery; the remaining
// fields are informational.
type Repository struct {
	FullName        string
	Name            string
	Description     *string // nil when the repository has no description.
	HTMLURL         string
	StargazersCount int
}
