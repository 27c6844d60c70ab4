package analysis

import "context"

// Role enum for specialist agents
type Role string

const (
	RoleSecurity     Role = "security"
	RolePerformance  Role = "performance"
	RoleArchitecture Role = "architecture"
)

// Agent port (interface untuk specialist reviewer)
type Agent interface {
	Role() Role
	Review(ctx context.Context, file SourceFile) ([]Finding, error)
}

// StructuralScanner port (interface untuk local syntax-tree linter)
type StructuralScanner interface {
	Scan(file SourceFile) ([]Finding, error)
}

// Synthesizer port (interface untuk executive summary pipeline)
type Synthesizer interface {
	Synthesize(ctx context.Context, findings []Finding, scores map[string]float64) (string, error)
}

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Get(ctx context.Context, tenant string, id RunID) (*Run, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Run, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Run, error)
	UpdateStatus(ctx context.Context, tenant string, id RunID, status Status) error
	Summary(ctx context.Context, tenant string, sinceDays int) (int, int, int, int, error)
}
