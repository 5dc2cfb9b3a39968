package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/authz"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// Escenario E: movimiento de un analista (nivel 2).
func TestCanReverse(t *testing.T) {
	m := &entity.Movement{Code: "M-1", RecordedBy: "u-analista", RecordedByLevel: 2}

	cases := []struct {
		name   string
		caller entity.Actor
		ok     bool
	}{
		{"mismo autor", entity.Actor{ID: "u-analista", Level: 2}, true},
		{"otro actor mismo nivel", entity.Actor{ID: "u-otro", Level: 2}, false},
		{"nivel inferior", entity.Actor{ID: "u-aux", Level: 1}, false},
		{"jefe de calidad", entity.Actor{ID: "u-jefe", Level: 4}, true},
		{"supervisor", entity.ActorFor("u-sup", entity.RoleSupervisor, 0), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authz.CanReverse(tc.caller, m)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrReversalNotAuthorized)
			assert.ErrorIs(t, err, domain.ErrForbidden)
		})
	}
}

func TestCanReverse_ActorSinIDNoEsAutor(t *testing.T) {
	m := &entity.Movement{Code: "M-1", RecordedByLevel: 3}
	assert.Error(t, authz.CanReverse(entity.Actor{Level: 3}, m))
}

func TestCanAdjust(t *testing.T) {
	assert.NoError(t, authz.CanAdjust(entity.Actor{Level: 3}, 0))
	assert.NoError(t, authz.CanAdjust(entity.Actor{Level: 5}, 4))

	err := authz.CanAdjust(entity.Actor{Level: 2}, 3)
	assert.ErrorIs(t, err, domain.ErrReversalNotAuthorized)
	var fe *domain.FieldError
	if assert.ErrorAs(t, err, &fe) {
		assert.Equal(t, "nivel", fe.Field)
	}
}
