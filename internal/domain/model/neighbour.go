package model

// Neighbour pairs a repository with the target repository's stargazers who
// also starred it. Stargazers are kept in discovery order.
type Neighbour struct {
	Repo       string
	Stargazers []User
}
