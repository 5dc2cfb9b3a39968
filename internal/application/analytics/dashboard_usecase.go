// Package analytics contiene el tablero de calidad: lotes por dictamen y alertas
// de vencimiento y reanálisis.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

const (
	defaultHorizonDays = 30
	maxHorizonDays     = 365
	alertLimit         = 50
)

// Solo importan las fechas de lotes que todavía pueden usarse o venderse.
var alertVerdicts = []entity.Verdict{entity.VerdictApproved, entity.VerdictReleased}

// DashboardUseCase genera el resumen de calidad.
//
// Fuente de datos: AnalyticsRepository (consultas read-only).
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo, now: time.Now}
}

// GetSummary construye el tablero con un horizonte de days días (30 si es 0).
//
// Tres consultas en paralelo:
//  1. CountActiveByVerdict          → ByVerdict + ActiveLots
//  2. DueBefore(vencimiento, hoy+N) → Expiring
//  3. DueBefore(reanálisis, hoy+N)  → ReanalysisDue
func (uc *DashboardUseCase) GetSummary(ctx context.Context, days int) (*dto.DashboardSummaryDTO, error) {
	if days <= 0 {
		days = defaultHorizonDays
	}
	if days > maxHorizonDays {
		days = maxHorizonDays
	}
	now := uc.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := today.AddDate(0, 0, days)

	var (
		counts     []repository.VerdictCount
		expiring   []repository.DateAlert
		reanalysis []repository.DateAlert
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if counts, err = uc.analyticsRepo.CountActiveByVerdict(gctx); err != nil {
			return fmt.Errorf("dashboard: lotes por dictamen: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if expiring, err = uc.analyticsRepo.DueBefore(gctx, repository.DateExpiry, alertVerdicts, until, alertLimit); err != nil {
			return fmt.Errorf("dashboard: vencimientos: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if reanalysis, err = uc.analyticsRepo.DueBefore(gctx, repository.DateReanalysis, alertVerdicts, until, alertLimit); err != nil {
			return fmt.Errorf("dashboard: reanálisis: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &dto.DashboardSummaryDTO{
		ByVerdict:     make(map[string]int, len(counts)),
		HorizonDays:   days,
		Until:         until.Format(time.DateOnly),
		Expiring:      toAlerts(expiring, today),
		ReanalysisDue: toAlerts(reanalysis, today),
		DateLabel:     monthLabel(now),
	}
	for _, c := range counts {
		out.ByVerdict[string(c.Verdict)] = c.Lots
		out.ActiveLots += c.Lots
	}
	return out, nil
}

func toAlerts(in []repository.DateAlert, today time.Time) []dto.DateAlertDTO {
	out := make([]dto.DateAlertDTO, 0, len(in))
	for _, a := range in {
		due := time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, dto.DateAlertDTO{
			LotCode:         a.LotCode,
			ProductCode:     a.ProductCode,
			Verdict:         string(a.Verdict),
			AnalysisNumber:  a.AnalysisNumber,
			Date:            due.Format(time.DateOnly),
			DaysLeft:        int(due.Sub(today).Hours() / 24),
			Overdue:         due.Before(today),
			CurrentQuantity: a.CurrentQuantity,
			Unit:            a.Unit,
		})
	}
	return out
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
