// Package seed loads restaurants, menus and accounts from YAML documents.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/types"
)

//go:embed data/santiago.yaml
var santiago []byte

// File is the layout of a seed document.
type File struct {
	Users       []User       `yaml:"users"`
	Restaurants []Restaurant `yaml:"restaurants"`
}

type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Username string `yaml:"username"`
	Role     string `yaml:"role"`
}

type Restaurant struct {
	Name                string     `yaml:"name"`
	Address             string     `yaml:"address"`
	Latitude            float64    `yaml:"latitude"`
	Longitude           float64    `yaml:"longitude"`
	Cuisine             string     `yaml:"cuisine"`
	ImageHint           string     `yaml:"image_hint"`
	GoogleRating        float64    `yaml:"google_rating"`
	GoogleRatingCount   int        `yaml:"google_rating_count"`
	PriceLevel          int        `yaml:"price_level"`
	PaymentMethods      []string   `yaml:"payment_methods"`
	Services            []string   `yaml:"services"`
	IsNew               bool       `yaml:"is_new"`
	IsHiddenGem         bool       `yaml:"is_hidden_gem"`
	IsFeatured          bool       `yaml:"is_featured"`
	HasSuperOffer       bool       `yaml:"has_super_offer"`
	WaitlistEnabled     bool       `yaml:"waitlist_enabled"`
	SeatingCapacity     int        `yaml:"seating_capacity"`
	NoShowPolicyMinutes *int       `yaml:"no_show_policy_minutes"`
	TakeawayMinutes     int        `yaml:"takeaway_minutes"`
	AutoAcceptUpTo      int        `yaml:"auto_accept_up_to"`
	Owner               string     `yaml:"owner"`
	Menu                []MenuItem `yaml:"menu"`
	Discounts           []Discount `yaml:"discounts"`
}

type MenuItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       int    `yaml:"price"`
	SalePrice   *int   `yaml:"sale_price"`
	Takeaway    bool   `yaml:"takeaway"`
	Vegan       bool   `yaml:"vegan"`
	Featured    bool   `yaml:"featured"`
	Stock       *int   `yaml:"stock"`
}

// Discount validity is given in days from the seeding date so the sample
// data stays current.
type Discount struct {
	Sponsor     string   `yaml:"sponsor"`
	Type        string   `yaml:"type"`
	Amount      float64  `yaml:"amount"`
	ValidDays   int      `yaml:"valid_days"`
	DaysOfWeek  []string `yaml:"days_of_week"`
	AppliesTo   string   `yaml:"applies_to"`
	Description string   `yaml:"description"`
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Load reads a seed document from path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Default returns the bundled Santiago sample data.
func Default() (*File, error) {
	return Parse(bytes.NewReader(santiago))
}

// Catalog is the part of the catalog service the seeder writes through.
type Catalog interface {
	CreateRestaurant(ctx context.Context, ownerID *uuid.UUID, req *types.RestaurantRequest) (*models.Restaurant, error)
	CreateMenuItem(ctx context.Context, restaurantID uuid.UUID, req *types.MenuItemRequest) (*models.MenuItem, error)
	CreateDiscount(ctx context.Context, restaurantID uuid.UUID, req *types.DiscountRequest) (*models.Discount, error)
	ReindexEmbeddings(ctx context.Context) (int, error)
}

// Result counts what a run created.
type Result struct {
	Users       int
	Restaurants int
	MenuItems   int
	Discounts   int
	Embedded    int
}

// Seeder writes seed documents through the services so the same validation
// applies as for API writes.
type Seeder struct {
	db      *gorm.DB
	auth    service.IAuthService
	catalog Catalog
	log     *zap.Logger
	now     func() time.Time
}

func New(db *gorm.DB, auth service.IAuthService, catalog Catalog, log *zap.Logger) *Seeder {
	return &Seeder{db: db, auth: auth, catalog: catalog, log: logging.OrNop(log), now: time.Now}
}

// Run creates missing users and restaurants. Existing accounts (by email) and
// restaurants (by name) are left untouched, so a run can be repeated.
func (s *Seeder) Run(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}

	for _, u := range f.Users {
		_, _, err := s.auth.Register(ctx, &types.RegisterRequest{
			Name: u.Name, Email: u.Email, Password: u.Password, Username: u.Username, Role: u.Role,
		}, true)
		switch {
		case errors.Is(err, service.ErrUserExists):
			s.log.Debug("Seed user exists", zap.String("email", u.Email))
		case err != nil:
			return res, fmt.Errorf("user %s: %w", u.Email, err)
		default:
			res.Users++
		}
	}

	for i := range f.Restaurants {
		created, err := s.restaurant(ctx, &f.Restaurants[i], res)
		if err != nil {
			return res, fmt.Errorf("restaurant %s: %w", f.Restaurants[i].Name, err)
		}
		if created {
			res.Restaurants++
		}
	}

	n, err := s.catalog.ReindexEmbeddings(ctx)
	if err != nil {
		return res, err
	}
	res.Embedded = n

	s.log.Info("Seed complete",
		zap.Int("users", res.Users),
		zap.Int("restaurants", res.Restaurants),
		zap.Int("menu_items", res.MenuItems),
		zap.Int("discounts", res.Discounts),
		zap.Int("embedded", res.Embedded))
	return res, nil
}

func (s *Seeder) restaurant(ctx context.Context, r *Restaurant, res *Result) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("name = ?", r.Name).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	var ownerID *uuid.UUID
	if r.Owner != "" {
		var owner models.User
		err := s.db.WithContext(ctx).Select("id").First(&owner, "email = ?", strings.ToLower(r.Owner)).Error
		if err != nil {
			return false, fmt.Errorf("owner %s: %w", r.Owner, err)
		}
		ownerID = &owner.ID
	}

	created, err := s.catalog.CreateRestaurant(ctx, ownerID, &types.RestaurantRequest{
		Name:                r.Name,
		Address:             r.Address,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		Cuisine:             r.Cuisine,
		ImageHint:           r.ImageHint,
		GoogleRating:        r.GoogleRating,
		GoogleRatingCount:   r.GoogleRatingCount,
		PriceLevel:          r.PriceLevel,
		PaymentMethods:      r.PaymentMethods,
		Services:            r.Services,
		IsNew:               r.IsNew,
		IsHiddenGem:         r.IsHiddenGem,
		IsFeatured:          r.IsFeatured,
		HasSuperOffer:       r.HasSuperOffer,
		WaitlistEnabled:     r.WaitlistEnabled,
		SeatingCapacity:     r.SeatingCapacity,
		NoShowPolicyMinutes: r.NoShowPolicyMinutes,
		TakeawayMinutes:     r.TakeawayMinutes,
		EventAvailability:   availability(r.AutoAcceptUpTo),
		OwnerID:             ownerID,
	})
	if err != nil {
		return false, err
	}

	for _, m := range r.Menu {
		_, err := s.catalog.CreateMenuItem(ctx, created.ID, &types.MenuItemRequest{
			Name:                 m.Name,
			Description:          m.Description,
			Price:                m.Price,
			SalePrice:            m.SalePrice,
			AvailableForTakeaway: m.Takeaway,
			IsVegan:              m.Vegan,
			IsFeatured:           m.Featured,
			Stock:                m.Stock,
		})
		if err != nil {
			return true, fmt.Errorf("menu item %s: %w", m.Name, err)
		}
		res.MenuItems++
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	for _, d := range r.Discounts {
		days := d.ValidDays
		if days <= 0 {
			days = 30
		}
		_, err := s.catalog.CreateDiscount(ctx, created.ID, &types.DiscountRequest{
			Sponsor:     d.Sponsor,
			Type:        d.Type,
			Amount:      d.Amount,
			ValidFrom:   today,
			ValidTo:     today.AddDate(0, 0, days),
			DaysOfWeek:  d.DaysOfWeek,
			AppliesTo:   d.AppliesTo,
			Description: d.Description,
		})
		if err != nil {
			return true, fmt.Errorf("discount %s: %w", d.Description, err)
		}
		res.Discounts++
	}
	return true, nil
}

// availability confirms every party bracket that fits within upTo guests.
func availability(upTo int) *models.EventAvailability {
	return &models.EventAvailability{
		UpTo4:  upTo >= 4,
		From5:  upTo >= 7,
		From8:  upTo >= 16,
		From17: upTo > 16,
	}
}
