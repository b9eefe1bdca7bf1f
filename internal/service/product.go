package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"digistore-bot/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProductService struct {
	DB *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{DB: db}
}

func (s *ProductService) ByID(productID uint) (*models.Product, error) {
	var product models.Product
	if err := s.DB.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) BySlug(slug string) (*models.Product, error) {
	var product models.Product
	err := s.DB.Where("slug = ?", slug).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

type ProductFilter struct {
	Category   models.ProductCategory
	IsActive   *bool
	IsFeatured *bool
	Limit      int
	Offset     int
}

func (s *ProductService) List(filter ProductFilter) ([]models.Product, error) {
	query := s.DB.Order("sort_order, created_at")
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsFeatured != nil {
		query = query.Where("is_featured = ?", *filter.IsFeatured)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Available returns active products that are in stock, catalog order.
func (s *ProductService) Available(category models.ProductCategory) ([]models.Product, error) {
	active := true
	products, err := s.List(ProductFilter{Category: category, IsActive: &active})
	if err != nil {
		return nil, err
	}
	available := products[:0]
	for _, p := range products {
		if p.InStock() {
			available = append(available, p)
		}
	}
	return available, nil
}

func (s *ProductService) Categories() ([]models.ProductCategory, error) {
	var categories []models.ProductCategory
	err := s.DB.Model(&models.Product{}).
		Where("is_active = ?", true).
		Distinct("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *ProductService) Create(product *models.Product) error {
	if err := s.DB.Create(product).Error; err != nil {
		return err
	}
	log.Printf("Created product: %s (ID: %d)", product.Name, product.ID)
	return nil
}

func (s *ProductService) Update(product *models.Product) error {
	return s.DB.Save(product).Error
}

// Deactivate is the soft delete: the product stays referenced by past orders.
func (s *ProductService) Deactivate(productID uint) error {
	res := s.DB.Model(&models.Product{}).Where("id = ?", productID).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type ProductStats struct {
	TotalProducts  int64 `json:"total_products"`
	ActiveProducts int64 `json:"active_products"`
	OutOfStock     int64 `json:"out_of_stock"`
	TotalSales     int64 `json:"total_sales"`
}

func (s *ProductService) Stats() (*ProductStats, error) {
	stats := &ProductStats{}
	if err := s.DB.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Product{}).Where("is_active = ?", true).Count(&stats.ActiveProducts).Error; err != nil {
		return nil, err
	}
	err := s.DB.Model(&models.Product{}).
		Where("stock_count IS NOT NULL AND stock_count <= 0 AND is_active = ?", true).
		Count(&stats.OutOfStock).Error
	if err != nil {
		return nil, err
	}
	var sold sql.NullInt64
	if err := s.DB.Model(&models.Product{}).Select("SUM(sold_count)").Scan(&sold).Error; err != nil {
		return nil, err
	}
	stats.TotalSales = sold.Int64
	return stats, nil
}

// productImport mirrors the catalog exchange format.
type productImport struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Category       models.ProductCategory `json:"category"`
	Price          decimal.Decimal        `json:"price"`
	Currency       models.Currency        `json:"currency"`
	DeliveryType   models.DeliveryType    `json:"delivery_type"`
	DurationDays   *int                   `json:"duration_days"`
	StockCount     *int                   `json:"stock_count"`
	DeliveryConfig map[string]interface{} `json:"delivery_config"`
	IsFeatured     bool                   `json:"is_featured"`
	Slug           string                 `json:"slug"`
	ImageURL       string                 `json:"image_url,omitempty"`
	SortOrder      int                    `json:"sort_order"`
}

type catalogFile struct {
	Products []productImport `json:"products"`
}

// ImportJSON loads the catalog file, skipping products whose slug already
// exists. There is no update-in-place.
func (s *ProductService) ImportJSON(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Products file not found: %s", path)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read products file: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("failed to parse products file: %w", err)
	}

	loaded := 0
	for _, item := range file.Products {
		if item.Slug != "" {
			if _, err := s.BySlug(item.Slug); err == nil {
				continue
			} else if !errors.Is(err, ErrNotFound) {
				return loaded, err
			}
		}

		product := models.Product{
			Name:           item.Name,
			Description:    item.Description,
			Category:       item.Category,
			Price:          item.Price,
			Currency:       item.Currency,
			DeliveryType:   item.DeliveryType,
			DurationDays:   item.DurationDays,
			StockCount:     item.StockCount,
			DeliveryConfig: datatypes.JSONMap(item.DeliveryConfig),
			IsActive:       true,
			IsFeatured:     item.IsFeatured,
			ImageURL:       item.ImageURL,
			SortOrder:      item.SortOrder,
		}
		if item.Slug != "" {
			slug := item.Slug
			product.Slug = &slug
		}
		if err := s.Create(&product); err != nil {
			return loaded, err
		}
		loaded++
	}

	log.Printf("Loaded %d products from %s", loaded, path)
	return loaded, nil
}

// ExportJSON writes the active catalog in the same exchange format.
func (s *ProductService) ExportJSON(path string) error {
	active := true
	products, err := s.List(ProductFilter{IsActive: &active})
	if err != nil {
		return err
	}

	file := catalogFile{Products: make([]productImport, 0, len(products))}
	for _, p := range products {
		item := productImport{
			Name:           p.Name,
			Description:    p.Description,
			Category:       p.Category,
			Price:          p.Price,
			Currency:       p.Currency,
			DeliveryType:   p.DeliveryType,
			DurationDays:   p.DurationDays,
			StockCount:     p.StockCount,
			DeliveryConfig: p.DeliveryConfig,
			IsFeatured:     p.IsFeatured,
			ImageURL:       p.ImageURL,
			SortOrder:      p.SortOrder,
		}
		if p.Slug != nil {
			item.Slug = *p.Slug
		}
		file.Products = append(file.Products, item)
	}

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write products file: %w", err)
	}

	log.Printf("Exported %d products to %s", len(products), path)
	return nil
}
