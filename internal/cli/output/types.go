package output

// DepsOutput is the JSON payload of the deps command.
type DepsOutput struct {
	Levels      []DepsLevel `json:"levels"`
	TotalTables int         `json:"total_tables"`
	TotalEdges  int         `json:"total_edges"`
	Cycle       []string    `json:"cycle,omitempty"`
}

// DepsLevel groups tables sharing a dependency depth.
type DepsLevel struct {
	Level  int         `json:"level"`
	Tables []DepsTable `json:"tables"`
}

// DepsTable is one table with its direct neighbors.
type DepsTable struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Created   bool     `json:"created,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
	UsedBy    []string `json:"used_by,omitempty"`
}
