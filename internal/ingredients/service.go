package ingredients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitmenu/mealplanner/internal/access"
	"github.com/fitmenu/mealplanner/internal/apperr"
	"github.com/fitmenu/mealplanner/internal/storage"
)

// Service manages the ingredient catalog: shared admin entries plus
// per-user custom entries.
type Service struct {
	storage storage.IngredientsStorage
}

func NewService(st storage.IngredientsStorage) *Service {
	return &Service{storage: st}
}

func (s *Service) Create(ctx context.Context, userID string, req CreateIngredientRequest) (*IngredientDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	owner := userID
	ing := storage.Ingredient{
		Name:            strings.TrimSpace(req.Name),
		Brand:           req.Brand,
		Barcode:         req.Barcode,
		CaloriesPer100g: req.CaloriesPer100g,
		ProteinPer100g:  req.ProteinPer100g,
		CarbsPer100g:    req.CarbsPer100g,
		FatPer100g:      req.FatPer100g,
		FiberPer100g:    req.FiberPer100g,
		SugarPer100g:    req.SugarPer100g,
		SodiumPer100g:   req.SodiumPer100g,
		OwnerUserID:     &owner,
	}
	if err := s.storage.CreateIngredient(ctx, &ing); err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}
	dto := toDTO(ing)
	return &dto, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*IngredientDTO, error) {
	ing, found, err := s.storage.GetIngredient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	if !found || !access.CanRead(userID, ing.OwnerUserID) {
		return nil, apperr.NotFoundf("ingredient %s not found", id)
	}
	dto := toDTO(ing)
	return &dto, nil
}

// List returns admin ingredients plus the requester's own, optionally
// filtered by a case-insensitive name/brand substring.
func (s *Service) List(ctx context.Context, userID, search string) ([]IngredientDTO, error) {
	rows, err := s.storage.ListIngredients(ctx, userID, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	dtos := make([]IngredientDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row))
	}
	return dtos, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, req UpdateIngredientRequest) (*IngredientDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ing, found, err := s.storage.GetIngredient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	if !found || !access.CanRead(userID, ing.OwnerUserID) {
		return nil, apperr.NotFoundf("ingredient %s not found", id)
	}
	if !access.CanMutate(userID, ing.OwnerUserID) {
		return nil, apperr.Forbiddenf("ingredient %s is not editable", id)
	}

	if req.Name != nil {
		ing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Brand != nil {
		ing.Brand = req.Brand
	}
	if req.Barcode != nil {
		ing.Barcode = req.Barcode
	}
	if req.CaloriesPer100g != nil {
		ing.CaloriesPer100g = *req.CaloriesPer100g
	}
	if req.ProteinPer100g != nil {
		ing.ProteinPer100g = *req.ProteinPer100g
	}
	if req.CarbsPer100g != nil {
		ing.CarbsPer100g = *req.CarbsPer100g
	}
	if req.FatPer100g != nil {
		ing.FatPer100g = *req.FatPer100g
	}
	if req.FiberPer100g != nil {
		ing.FiberPer100g = req.FiberPer100g
	}
	if req.SugarPer100g != nil {
		ing.SugarPer100g = req.SugarPer100g
	}
	if req.SodiumPer100g != nil {
		ing.SodiumPer100g = req.SodiumPer100g
	}

	if err := s.storage.UpdateIngredient(ctx, &ing); err != nil {
		return nil, fmt.Errorf("update ingredient: %w", err)
	}
	dto := toDTO(ing)
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	ing, found, err := s.storage.GetIngredient(ctx, id)
	if err != nil {
		return fmt.Errorf("get ingredient: %w", err)
	}
	if !found || !access.CanRead(userID, ing.OwnerUserID) {
		return apperr.NotFoundf("ingredient %s not found", id)
	}
	if !access.CanMutate(userID, ing.OwnerUserID) {
		return apperr.Forbiddenf("ingredient %s is not deletable", id)
	}
	if err := s.storage.DeleteIngredient(ctx, id); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return apperr.Conflictf("ingredient %s is used by one or more meals", id)
		}
		return fmt.Errorf("delete ingredient: %w", err)
	}
	return nil
}
