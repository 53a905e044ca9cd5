package domain

// BindStatus is the outcome of binding a client to a pooled instance.
type BindStatus string

const (
	BindNotFound BindStatus = "not-found"
	BindBound    BindStatus = "bound"
	BindOccupied BindStatus = "occupied"
)
