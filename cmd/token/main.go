// token emite un JWT de prueba para un usuario y rol, firmado con JWT_SECRET.
//
// Uso: go run ./cmd/token <user_id> <rol>
// Roles: AUXILIAR, ANALISTA, SUPERVISOR, JEFE_CALIDAD, DIRECTOR_TECNICO, ADMIN.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/jwt"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "uso: token <user_id> <rol>")
		os.Exit(2)
	}
	userID, role := os.Args[1], strings.ToUpper(os.Args[2])
	level, ok := entity.RoleLevels[role]
	if !ok {
		fmt.Fprintf(os.Stderr, "rol desconocido: %s\n", role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, userID, role, level, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generar token:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
