package partnersrp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/rentdispatch/pkg/adapter/db/postgres"
	"github.com/momeni/rentdispatch/pkg/core/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gPartner struct {
	PID       uuid.UUID `gorm:"primaryKey;type:uuid;column:pid"`
	Name      string
	Status    string
	Location  model.Coordinate `gorm:"embedded"`
	City      string
	LastGPSAt *time.Time `gorm:"column:last_gps_at"`
}

func (gp *gPartner) TableName() string {
	return "partners"
}

func (gp *gPartner) Model() (*model.Partner, error) {
	s, err := model.ParsePartnerStatus(gp.Status)
	if err != nil {
		return nil, fmt.Errorf("partner %s: %w", gp.PID, err)
	}
	return &model.Partner{
		ID:        gp.PID,
		Name:      gp.Name,
		Status:    s,
		Location:  gp.Location,
		City:      gp.City,
		LastGPSAt: gp.LastGPSAt,
	}, nil
}

func OnlinePartners[Q postgres.Queryer](ctx context.Context, q Q) ([]model.Partner, error) {
	var gps []gPartner
	err := q.GORM(ctx).Where(
		"status = ?", model.PartnerStatusOnline.String(),
	).Order("pid").Find(&gps).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	pp := make([]model.Partner, 0, len(gps))
	for i := range gps {
		p, err := gps[i].Model()
		if err != nil {
			return nil, err
		}
		pp = append(pp, *p)
	}
	return pp, nil
}

func Partner[Q postgres.Queryer](ctx context.Context, q Q, pid uuid.UUID) (*model.Partner, error) {
	var gp gPartner
	err := q.GORM(ctx).Where("pid = ?", pid).Take(&gp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("partner %s: %w", pid, model.ErrPartnerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return gp.Model()
}

func UpdateLocation[Q postgres.Queryer](
	ctx context.Context, q Q, pid uuid.UUID, c model.Coordinate, at time.Time,
) (*model.Partner, error) {
	return update(ctx, q, pid, map[string]any{
		"lat":         c.Lat,
		"lon":         c.Lon,
		"last_gps_at": at,
	})
}

// SetStatus updates the pid partner status. With keepSuspended, the
// update is guarded by status <> 'suspended' and a missed guard is
// told apart from a missing partner by a second lookup.
func SetStatus[Q postgres.Queryer](
	ctx context.Context, q Q, pid uuid.UUID, s model.PartnerStatus,
	keepSuspended bool,
) (*model.Partner, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	values := map[string]any{"status": s.String()}
	if !keepSuspended {
		return update(ctx, q, pid, values)
	}
	suspended := model.PartnerStatusSuspended.String()
	p, err := update(ctx, q, pid, values, "status <> ?", suspended)
	if !errors.Is(err, model.ErrPartnerNotFound) {
		return p, err
	}
	if _, err2 := Partner(ctx, q, pid); err2 != nil {
		return nil, err2
	}
	return nil, fmt.Errorf("partner %s: %w", pid, model.ErrPartnerSuspended)
}

func update[Q postgres.Queryer](
	ctx context.Context, q Q, pid uuid.UUID, values map[string]any,
	guard ...any,
) (*model.Partner, error) {
	var gps []gPartner
	gdb := q.GORM(ctx).Model(&gps).Clauses(clause.Returning{}).Where("pid = ?", pid)
	if len(guard) > 0 {
		gdb = gdb.Where(guard[0], guard[1:]...)
	}
	err := gdb.Updates(values).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if n := len(gps); n != 1 {
		return nil, fmt.Errorf(
			"partner %s: expected one row, but got %d: %w",
			pid, n, model.ErrPartnerNotFound,
		)
	}
	return gps[0].Model()
}

func Create[Q postgres.Queryer](ctx context.Context, q Q, p *model.Partner) error {
	if err := p.Status.Validate(); err != nil {
		return err
	}
	gp := gPartner{
		PID:       p.ID,
		Name:      p.Name,
		Status:    p.Status.String(),
		Location:  p.Location,
		City:      p.City,
		LastGPSAt: p.LastGPSAt,
	}
	if err := q.GORM(ctx).Create(&gp).Error; err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return nil
}
