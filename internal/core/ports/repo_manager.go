package ports

import "github.com/brood-labs/broodd/internal/core/domain"

type RepoManager interface {
	Units() domain.UnitRepository
	Close()
}
