package entity

import "time"

// Roles válidos y su nivel jerárquico.
const (
	RoleAuxiliary      = "AUXILIAR"
	RoleAnalyst        = "ANALISTA"
	RoleSupervisor     = "SUPERVISOR"
	RoleQualityHead    = "JEFE_CALIDAD"
	RoleTechnicalChief = "DIRECTOR_TECNICO"
	RoleAdmin          = "ADMIN"
)

// RoleLevels nivel jerárquico por rol; a mayor nivel, más autoridad.
var RoleLevels = map[string]int{
	RoleAuxiliary:      1,
	RoleAnalyst:        2,
	RoleSupervisor:     3,
	RoleQualityHead:    4,
	RoleTechnicalChief: 5,
	RoleAdmin:          6,
}

// Actor representa al usuario que ejecuta una operación, tal como lo entrega la autenticación.
type Actor struct {
	ID    string
	Role  string
	Level int
}

// ActorFor construye un Actor resolviendo el nivel desde el rol cuando level es 0.
func ActorFor(id, role string, level int) Actor {
	if level == 0 {
		level = RoleLevels[role]
	}
	return Actor{ID: id, Role: role, Level: level}
}

// User operador del sistema. El rol determina el nivel jerárquico con que firma los movimientos.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor devuelve la identidad con que el usuario registra movimientos.
func (u *User) Actor() Actor { return ActorFor(u.ID, u.Role, 0) }
