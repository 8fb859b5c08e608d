package domain

// Record is a registry entity flowing from the raw extract to the contract.
type Record struct {
	ID     string  `json:"uen"                     parquet:"uen"`
	Name   string  `json:"entity_name"             parquet:"entity_name"`
	Status *string `json:"entity_status,omitempty" parquet:"entity_status,optional"`
}

// WithStatus returns a copy of r carrying status. An empty status is kept:
// raw extracts always have the field, stripped files never do.
func (r Record) WithStatus(status string) Record {
	r.Status = &status
	return r
}

// StatusText returns the registry status, or "" when stripped.
func (r Record) StatusText() string {
	if r.Status == nil {
		return ""
	}
	return *r.Status
}

// HasStatus reports whether the record still carries its registry status.
func (r Record) HasStatus() bool {
	return r.Status != nil
}
