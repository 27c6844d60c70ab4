package analysis

import (
	"context"

	domai "github.com/codeiq-dev/codeiq/internal/domain/ai"
	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

// Specialist adapts the LLM client into a role-scoped Agent. Invocations
// share no mutable state; each call stands alone.
type Specialist struct {
	client domai.Client
	role   domain.Role
}

func NewSpecialist(client domai.Client, role domain.Role) *Specialist {
	return &Specialist{client: client, role: role}
}

// DefaultSpecialists returns the three fixed review roles.
func DefaultSpecialists(client domai.Client) []domain.Agent {
	return []domain.Agent{
		NewSpecialist(client, domain.RoleSecurity),
		NewSpecialist(client, domain.RolePerformance),
		NewSpecialist(client, domain.RoleArchitecture),
	}
}

func (s *Specialist) Role() domain.Role { return s.role }

func (s *Specialist) Review(ctx context.Context, file domain.SourceFile) ([]domain.Finding, error) {
	return s.client.Review(ctx, s.role, file)
}
