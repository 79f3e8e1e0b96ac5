package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/application/validation"
	"github.com/jhoicas/obrador-api/internal/domain"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
)

// RecordProductionFromRequest adapta el body HTTP al caso de uso RecordProduction.
// También lo usa el importador de lotes por CSV.
func (uc *LedgerUseCase) RecordProductionFromRequest(ctx context.Context, userID, productID string, in dto.RecordProductionRequest) (*entity.InventoryLedger, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	day, err := dto.ParseDate(in.ProductionDate)
	if err != nil {
		return nil, domain.NewValidationError("production_date", "datetime")
	}
	var expiry *time.Time
	if in.ExpiryDate != "" {
		e, err := dto.ParseDate(in.ExpiryDate)
		if err != nil {
			return nil, domain.NewValidationError("expiry_date", "datetime")
		}
		expiry = &e
	}
	return uc.RecordProduction(ctx, ProductionInput{
		ProductID:      productID,
		UserID:         userID,
		ProductionDate: day,
		Quantity:       in.Quantity,
		ExpiryDate:     expiry,
		Reason:         in.Reason,
	})
}

// AdjustLotFromRequest adapta el body HTTP al caso de uso AdjustLot. date va en formato YYYY-MM-DD.
func (uc *LedgerUseCase) AdjustLotFromRequest(ctx context.Context, userID, productID, date string, in dto.AdjustLotRequest) (*entity.InventoryLedger, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	day, err := dto.ParseDate(date)
	if err != nil {
		return nil, domain.NewValidationError("production_date", "datetime")
	}
	return uc.AdjustLot(ctx, AdjustInput{
		ProductID:      productID,
		UserID:         userID,
		ProductionDate: day,
		Produced:       in.Produced,
		Reason:         in.Reason,
	})
}
