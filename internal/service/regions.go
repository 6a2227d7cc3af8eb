package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/five82/dials/internal/settingsapi"
)

// RegionService is the CRUD collaborator behind the regions table.
type RegionService struct {
	api    settingsapi.RegionsAPI
	logger *slog.Logger
}

func NewRegionService(api settingsapi.RegionsAPI, logger *slog.Logger) *RegionService {
	if logger == nil {
		logger = slog.Default().With("component", "service.regions")
	}
	return &RegionService{api: api, logger: logger}
}

func (s *RegionService) FetchAllRegions(ctx context.Context) ([]settingsapi.Region, error) {
	regions, err := s.api.FetchAllRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch regions: %w", err)
	}
	return regions, nil
}

func (s *RegionService) CreateRegion(ctx context.Context, name string) (settingsapi.Region, error) {
	region, err := s.api.CreateRegion(ctx, name)
	if err != nil {
		return settingsapi.Region{}, fmt.Errorf("create region %q: %w", name, err)
	}
	s.logger.Info("region created", "id", region.ID, "name", region.Name)
	return region, nil
}

func (s *RegionService) UpdateRegion(ctx context.Context, region settingsapi.Region) (settingsapi.Region, error) {
	updated, err := s.api.UpdateRegion(ctx, region)
	if err != nil {
		return settingsapi.Region{}, fmt.Errorf("update region %s: %w", region.ID, err)
	}
	s.logger.Info("region renamed", "id", updated.ID, "name", updated.Name)
	return updated, nil
}

func (s *RegionService) DeleteRegions(ctx context.Context, ids []string) error {
	if err := s.api.DeleteRegions(ctx, ids); err != nil {
		return fmt.Errorf("delete regions: %w", err)
	}
	s.logger.Info("regions deleted", "count", len(ids))
	return nil
}
