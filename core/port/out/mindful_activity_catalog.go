package out

import "mindful_server/core/domain"

// ActivityCatalog is the read-only list of suggested activities, loaded once
// at startup.
type ActivityCatalog interface {
	All() []domain.Activity
}
