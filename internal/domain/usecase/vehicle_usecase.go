package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"workorder/internal/domain/entity"
)

type VehicleCache interface {
	// GetVehicle returns nil, nil on a cache miss.
	GetVehicle(ctx context.Context, vin string) (*entity.VehicleInfo, error)
	SetVehicle(ctx context.Context, vin string, info entity.VehicleInfo) error
}

// VehicleUseCase decodes vehicle identification numbers through the external
// lookup, with an optional cache in front of it.
type VehicleUseCase struct {
	Lookup VehicleDecoder
	Cache  VehicleCache
}

func NewVehicleUseCase(lookup VehicleDecoder, cache VehicleCache) *VehicleUseCase {
	return &VehicleUseCase{Lookup: lookup, Cache: cache}
}

// Decode passes vin to the lookup unmodified and returns its fields verbatim.
func (u *VehicleUseCase) Decode(ctx context.Context, vin string) (entity.VehicleInfo, error) {
	if strings.TrimSpace(vin) == "" {
		return entity.VehicleInfo{}, entity.Validation("vin is required")
	}

	if u.Cache != nil {
		cached, err := u.Cache.GetVehicle(ctx, vin)
		if err != nil {
			log.Warn().Err(err).Str("vin", vin).Msg("vehicle cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	info, err := u.Lookup.Decode(ctx, vin)
	if err != nil {
		return entity.VehicleInfo{}, err
	}

	if u.Cache != nil {
		if err := u.Cache.SetVehicle(ctx, vin, info); err != nil {
			log.Warn().Err(err).Str("vin", vin).Msg("vehicle cache write failed")
		}
	}
	return info, nil
}
