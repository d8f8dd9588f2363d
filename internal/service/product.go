package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-management/internal/apperr"
	"github.com/iliyamo/hotel-management/internal/auth"
	"github.com/iliyamo/hotel-management/internal/model"
)

// ProductService manages the catalog. Quantities are never written here
// after creation: every later change goes through the stock ledger.
type ProductService struct {
	store Store
}

func NewProductService(store Store) *ProductService { return &ProductService{store: store} }

// ProductInput is the editable part of a product. InitialStock is only read
// on creation.
type ProductInput struct {
	Name           string
	Code           string
	Description    string
	Unit           string
	AlertThreshold decimal.Decimal
	UnitPrice      decimal.Decimal
	Category       model.ProductCategory
	InitialStock   decimal.Decimal
}

func (in *ProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Category == "" {
		in.Category = model.CategoryOther
	}
}

func (in ProductInput) validate() error {
	var f apperr.Fields
	f.Add(in.Name == "", "name", "name is required")
	f.Add(in.Code == "", "code", "code is required")
	f.Add(!in.Category.Valid(), "category", "unknown category")
	f.Add(in.UnitPrice.IsNegative(), "unit_price", "unit price must not be negative")
	f.Add(in.AlertThreshold.IsNegative(), "alert_threshold", "alert threshold must not be negative")
	f.Add(in.InitialStock.IsNegative(), "initial_stock", "initial stock must not be negative")
	f.Add(!fitsScale(in.UnitPrice, moneyPlaces), "unit_price", "unit price allows 2 decimals")
	f.Add(!fitsScale(in.AlertThreshold, quantityPlaces), "alert_threshold", "alert threshold allows 3 decimals")
	f.Add(!fitsScale(in.InitialStock, quantityPlaces), "initial_stock", "initial stock allows 3 decimals")
	return f.Err()
}

// Create inserts a product with zero stock, then books InitialStock as an IN
// movement in the same transaction so the ledger starts complete.
func (s *ProductService) Create(ctx context.Context, p auth.Principal, in ProductInput) (*model.Product, error) {
	if err := p.Require(auth.UpdateStock, auth.ManageMenu); err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.Product
	err := s.store.Tx(ctx, func(r Repos) error {
		exists, err := r.Products().ExistsByCode(ctx, p.HotelID, in.Code, 0)
		if err != nil {
			return err
		}
		if exists {
			return apperr.New(apperr.ErrConflict, "product code %s already exists", in.Code)
		}
		ts := now()
		prod := &model.Product{
			HotelID:        p.HotelID,
			Name:           in.Name,
			Code:           in.Code,
			Description:    in.Description,
			Unit:           in.Unit,
			Stock:          decimal.Zero,
			AlertThreshold: in.AlertThreshold,
			UnitPrice:      in.UnitPrice,
			Category:       in.Category,
			CreatedAt:      ts,
			UpdatedAt:      ts,
		}
		if err := r.Products().Create(ctx, prod); err != nil {
			return err
		}
		out = prod
		if !in.InitialStock.IsPositive() {
			return nil
		}
		out, err = applyAdjustment(ctx, r, prod, Adjustment{
			ProductID: prod.ID,
			Quantity:  in.InitialStock,
			Kind:      model.MovementIn,
			Reason:    "Initial stock",
			ActorID:   p.ActorID(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, p auth.Principal, id uint64) (*model.Product, error) {
	if err := p.Require(auth.ViewStock, auth.ViewOrders); err != nil {
		return nil, err
	}
	return s.store.Products().GetByID(ctx, p.HotelID, id)
}

func (s *ProductService) List(ctx context.Context, p auth.Principal, f ProductFilter) ([]model.Product, error) {
	if err := p.Require(auth.ViewStock, auth.ViewOrders); err != nil {
		return nil, err
	}
	if f.Category != "" && !f.Category.Valid() {
		return nil, apperr.Invalid("category", "unknown category")
	}
	return s.store.Products().List(ctx, p.HotelID, f)
}

// Update edits catalog fields; stock and availability are left untouched.
func (s *ProductService) Update(ctx context.Context, p auth.Principal, id uint64, in ProductInput) (*model.Product, error) {
	if err := p.Require(auth.UpdateStock, auth.ManageMenu); err != nil {
		return nil, err
	}
	in.normalize()
	in.InitialStock = decimal.Zero
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.Product
	err := s.store.Tx(ctx, func(r Repos) error {
		prod, err := r.Products().GetForUpdate(ctx, p.HotelID, id)
		if err != nil {
			return err
		}
		if in.Code != prod.Code {
			exists, err := r.Products().ExistsByCode(ctx, p.HotelID, in.Code, prod.ID)
			if err != nil {
				return err
			}
			if exists {
				return apperr.New(apperr.ErrConflict, "product code %s already exists", in.Code)
			}
		}
		prod.Name = in.Name
		prod.Code = in.Code
		prod.Description = in.Description
		prod.Unit = in.Unit
		prod.AlertThreshold = in.AlertThreshold
		prod.UnitPrice = in.UnitPrice
		prod.Category = in.Category
		prod.UpdatedAt = now()
		out = prod
		return r.Products().Update(ctx, prod)
	})
	return out, err
}

func (s *ProductService) Delete(ctx context.Context, p auth.Principal, id uint64) error {
	if err := p.Require(auth.UpdateStock); err != nil {
		return err
	}
	return s.store.Tx(ctx, func(r Repos) error {
		if _, err := r.Products().GetForUpdate(ctx, p.HotelID, id); err != nil {
			return err
		}
		return r.Products().Delete(ctx, p.HotelID, id)
	})
}
