package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"library/internal/models"
)

func TestCanModify(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name  string
		actor models.Actor
		want  bool
	}{
		{"owner may modify own resource", models.Actor{ID: ownerID, Role: models.RoleUser}, true},
		{"non-admin stranger may not", models.Actor{ID: otherID, Role: models.RoleUser}, false},
		{"admin may modify anything", models.Actor{ID: otherID, Role: models.RoleAdmin}, true},
		{"unknown role gets nothing", models.Actor{ID: ownerID, Role: models.Role("superuser")}, false},
		{"zero actor gets nothing", models.Actor{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModify(tt.actor, ownerID))
		})
	}
}
