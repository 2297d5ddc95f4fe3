package reviews

// ReportID identifier type
type ReportID int64

// ReviewReport is the structured outcome of reviewing one uploaded source file.
// Suggestions carries the recognized keys readability, modularity, best_practices
// and performance; PotentialBugs carries reproducibility and parameter_validation.
// Keys the model omits are simply absent. Both maps are serialized to JSON text at
// the repository boundary and must never be stored as null.
type ReviewReport struct {
	ID            ReportID          `json:"id"`
	Filename      string            `json:"filename"`
	Summary       string            `json:"summary"`
	Suggestions   map[string]string `json:"suggestions"`
	PotentialBugs map[string]string `json:"potential_bugs"`
	Timestamp     string            `json:"timestamp"` // ISO-8601, assigned by the orchestrator, never updated
}
