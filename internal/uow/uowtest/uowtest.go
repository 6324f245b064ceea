// Package uowtest provides in-memory repository fakes for service tests.
// The fakes honor the same not-found and conflict semantics as the GORM
// implementations so services can be exercised without a database.
package uowtest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	dbtypes "github.com/shopvite/shopvite-backend/pkg/db/types"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
	"github.com/shopvite/shopvite-backend/pkg/types"
)

// Store is the shared in-memory state behind all fake repositories.
type Store struct {
	mtx sync.Mutex

	Users          map[uuid.UUID]*models.User
	Roles          map[uuid.UUID]*models.Role
	Categories     map[uuid.UUID]*models.Category
	Products       map[uuid.UUID]*models.Product
	Carts          map[uuid.UUID]*models.Cart
	CartItems      map[uuid.UUID]*models.CartItem
	Orders         map[uuid.UUID]*models.Order
	TrackingEvents []models.TrackingEvent
	Reviews        map[uuid.UUID]*models.Review
	Inventory      map[uuid.UUID]*models.InventoryItem
	Warehouses     map[uuid.UUID]*models.Warehouse
	Notifications  map[uuid.UUID]*models.Notification
	Payments       map[uuid.UUID]*models.Payment
	Emitted        []outbox.DomainEvent

	nextOrderNumber int64
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		Users:           map[uuid.UUID]*models.User{},
		Roles:           map[uuid.UUID]*models.Role{},
		Categories:      map[uuid.UUID]*models.Category{},
		Products:        map[uuid.UUID]*models.Product{},
		Carts:           map[uuid.UUID]*models.Cart{},
		CartItems:       map[uuid.UUID]*models.CartItem{},
		Orders:          map[uuid.UUID]*models.Order{},
		Reviews:         map[uuid.UUID]*models.Review{},
		Inventory:       map[uuid.UUID]*models.InventoryItem{},
		Warehouses:      map[uuid.UUID]*models.Warehouse{},
		Notifications:   map[uuid.UUID]*models.Notification{},
		Payments:        map[uuid.UUID]*models.Payment{},
		nextOrderNumber: 100000,
	}
}

// Runner satisfies the service-side runner contract by executing callbacks
// directly against the in-memory unit of work.
type Runner struct {
	Store *Store
	UoW   *uow.UnitOfWork
	// RunErr, when set, is returned before the callback executes.
	RunErr error
}

// NewRunner wires a fresh store into a unit of work backed by fakes.
func NewRunner() *Runner {
	store := NewStore()
	u := &uow.UnitOfWork{
		Users:         &FakeUserRepo{store: store},
		Roles:         &FakeRoleRepo{store: store},
		Categories:    &FakeCategoryRepo{store: store},
		Products:      &FakeProductRepo{store: store},
		Carts:         &FakeCartRepo{store: store},
		Orders:        &FakeOrderRepo{store: store},
		Reviews:       &FakeReviewRepo{store: store},
		Inventory:     &FakeInventoryRepo{store: store},
		Warehouses:    &FakeWarehouseRepo{store: store},
		Notifications: &FakeNotificationRepo{store: store},
		Payments:      &FakePaymentRepo{store: store},
		Outbox:        &FakeOutbox{store: store},
	}
	return &Runner{Store: store, UoW: u}
}

func (r *Runner) Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error {
	if r.RunErr != nil {
		return r.RunErr
	}
	return fn(r.UoW)
}

func (r *Runner) Repos() *uow.UnitOfWork {
	return r.UoW
}

// Seed helpers

func (s *Store) SeedRole(name string, permissions []string) *models.Role {
	role := &models.Role{ID: uuid.New(), Name: name, Permissions: permissions, Version: 1}
	s.Roles[role.ID] = role
	return role
}

func (s *Store) SeedUser(email string, role *models.Role) *models.User {
	user := &models.User{ID: uuid.New(), Email: email, IsActive: true}
	if role != nil {
		user.RoleID = role.ID
		user.Role = role
	}
	s.Users[user.ID] = user
	return user
}

func (s *Store) SeedCategory(name string) *models.Category {
	category := &models.Category{ID: uuid.New(), Name: name}
	s.Categories[category.ID] = category
	return category
}

func (s *Store) SeedProduct(name string, priceCents int, categoryID uuid.UUID) *models.Product {
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Slug:       strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		SKU:        "SKU-" + uuid.NewString()[:8],
		CategoryID: categoryID,
		PriceCents: priceCents,
		IsActive:   true,
	}
	s.Products[product.ID] = product
	return product
}

func (s *Store) SeedWarehouse(code string) *models.Warehouse {
	warehouse := &models.Warehouse{ID: uuid.New(), Name: code, Code: code}
	s.Warehouses[warehouse.ID] = warehouse
	return warehouse
}

func (s *Store) SeedInventory(productID, warehouseID uuid.UUID, available, reorder int) *models.InventoryItem {
	item := &models.InventoryItem{
		ID:           uuid.New(),
		ProductID:    productID,
		WarehouseID:  warehouseID,
		AvailableQty: available,
		ReorderLevel: reorder,
	}
	s.Inventory[item.ID] = item
	return item
}

// FakeOutbox records emitted events.
type FakeOutbox struct {
	store *Store
	// EmitErr, when set, fails every emit.
	EmitErr error
}

func (f *FakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.EmitErr != nil {
		return f.EmitErr
	}
	f.store.Emitted = append(f.store.Emitted, event)
	return nil
}

// FakeUserRepo

type FakeUserRepo struct {
	store *Store
}

func (f *FakeUserRepo) WithTx(tx *gorm.DB) uow.UserRepository { return f }

func (f *FakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.store.mtx.Lock()
	defer f.store.mtx.Unlock()
	for _, existing := range f.store.Users {
		if existing.Email == user.Email {
			return errDuplicate("ux_users_email")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	f.store.Users[user.ID] = user
	return nil
}

func (f *FakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.store.Users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if user.Role == nil {
		if role, ok := f.store.Roles[user.RoleID]; ok {
			user.Role = role
		}
	}
	copied := *user
	return &copied, nil
}

func (f *FakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.store.Users {
		if user.Email == email {
			return f.FindByID(ctx, user.ID)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *FakeUserRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.store.mtx.Lock()
	defer f.store.mtx.Unlock()
	user, ok := f.store.Users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "first_name":
			user.FirstName = value.(string)
		case "last_name":
			user.LastName = value.(string)
		case "phone":
			phone := value.(string)
			user.Phone = &phone
		case "favorites":
			user.Favorites = toUUIDs(value)
		case "role_id":
			user.RoleID = value.(uuid.UUID)
			user.Role = f.store.Roles[user.RoleID]
		case "password_hash":
			user.PasswordHash = value.(string)
		case "is_active":
			user.IsActive = value.(bool)
		case "last_login_at":
			at := value.(time.Time)
			user.LastLoginAt = &at
		}
	}
	return nil
}

func (f *FakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.store.Users)), nil
}

// FakeRoleRepo

type FakeRoleRepo struct {
	store *Store
}

func (f *FakeRoleRepo) WithTx(tx *gorm.DB) uow.RoleRepository { return f }

func (f *FakeRoleRepo) Create(ctx context.Context, role *models.Role) error {
	for _, existing := range f.store.Roles {
		if existing.Name == role.Name {
			return errDuplicate("ux_roles_name")
		}
	}
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	if role.Version == 0 {
		role.Version = 1
	}
	f.store.Roles[role.ID] = role
	return nil
}

func (f *FakeRoleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	role, ok := f.store.Roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *role
	return &copied, nil
}

func (f *FakeRoleRepo) FindByName(ctx context.Context, name string) (*models.Role, error) {
	for _, role := range f.store.Roles {
		if role.Name == name {
			copied := *role
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *FakeRoleRepo) List(ctx context.Context) ([]models.Role, error) {
	out := make([]models.Role, 0, len(f.store.Roles))
	for _, role := range f.store.Roles {
		out = append(out, *role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakeRoleRepo) UpdatePermissions(ctx context.Context, id uuid.UUID, permissions []string, actor uuid.UUID) error {
	role, ok := f.store.Roles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	role.Permissions = permissions
	role.Version++
	role.UpdatedBy = &actor
	return nil
}

// FakeCategoryRepo

type FakeCategoryRepo struct {
	store *Store
}

func (f *FakeCategoryRepo) WithTx(tx *gorm.DB) uow.CategoryRepository { return f }

func (f *FakeCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	for _, existing := range f.store.Categories {
		if existing.Name == category.Name {
			return errDuplicate("ux_categories_name")
		}
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	f.store.Categories[category.ID] = category
	return nil
}

func (f *FakeCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, ok := f.store.Categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *category
	return &copied, nil
}

func (f *FakeCategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(f.store.Categories))
	for _, category := range f.store.Categories {
		out = append(out, *category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakeCategoryRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	category, ok := f.store.Categories[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			category.Name = value.(string)
		case "description":
			desc := value.(string)
			category.Description = &desc
		case "image_url":
			url := value.(string)
			category.ImageURL = &url
		}
	}
	return nil
}

func (f *FakeCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.store.Categories[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.store.Categories, id)
	return nil
}

// FakeProductRepo

type FakeProductRepo struct {
	store *Store
}

func (f *FakeProductRepo) WithTx(tx *gorm.DB) uow.ProductRepository { return f }

func (f *FakeProductRepo) Create(ctx context.Context, product *models.Product) error {
	for _, existing := range f.store.Products {
		if existing.Slug == product.Slug {
			return errDuplicate("ux_products_slug")
		}
		if existing.SKU == product.SKU {
			return errDuplicate("ux_products_sku")
		}
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	f.store.Products[product.ID] = product
	return nil
}

func (f *FakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := f.store.Products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	return &copied, nil
}

func (f *FakeProductRepo) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	for _, product := range f.store.Products {
		if product.Slug == slug {
			copied := *product
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *FakeProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	out := []models.Product{}
	for _, id := range ids {
		if product, ok := f.store.Products[id]; ok {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (f *FakeProductRepo) List(ctx context.Context, params pagination.Params, filters uow.ProductFilters) ([]models.Product, int64, error) {
	matched := []models.Product{}
	for _, product := range f.store.Products {
		if filters.CategoryID != nil && product.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.Active != nil && product.IsActive != *filters.Active {
			continue
		}
		if filters.Featured != nil && product.IsFeatured != *filters.Featured {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(filters.Search)) {
			continue
		}
		matched = append(matched, *product)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := int64(len(matched))
	params = params.Normalize()
	start := params.Offset()
	if start > len(matched) {
		return []models.Product{}, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *FakeProductRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	product, ok := f.store.Products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			product.Name = value.(string)
		case "slug":
			product.Slug = value.(string)
		case "description":
			desc := value.(string)
			product.Description = &desc
		case "price_cents":
			product.PriceCents = value.(int)
		case "original_price_cents":
			cents := value.(int)
			product.OriginalPriceCents = &cents
		case "is_active":
			product.IsActive = value.(bool)
		case "is_featured":
			product.IsFeatured = value.(bool)
		case "category_id":
			product.CategoryID = value.(uuid.UUID)
		case "image_url":
			url := value.(string)
			product.ImageURL = &url
		}
	}
	return nil
}

func (f *FakeProductRepo) ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error {
	product, ok := f.store.Products[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range variants {
		if variants[i].ID == uuid.Nil {
			variants[i].ID = uuid.New()
		}
		variants[i].ProductID = productID
	}
	product.Variants = variants
	return nil
}

func (f *FakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.store.Products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.store.Products, id)
	return nil
}

func (f *FakeProductRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.store.Products)), nil
}

func (f *FakeProductRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	for _, product := range f.store.Products {
		if product.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// FakeCartRepo

type FakeCartRepo struct {
	store *Store
}

func (f *FakeCartRepo) WithTx(tx *gorm.DB) uow.CartRepository { return f }

func (f *FakeCartRepo) Create(ctx context.Context, cart *models.Cart) error {
	for _, existing := range f.store.Carts {
		if existing.UserID == cart.UserID {
			return errDuplicate("ux_carts_user")
		}
	}
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	f.store.Carts[cart.ID] = cart
	return nil
}

func (f *FakeCartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	for _, cart := range f.store.Carts {
		if cart.UserID == userID {
			copied := *cart
			copied.Items = f.itemsFor(cart.ID)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *FakeCartRepo) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	item, ok := f.store.CartItems[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *FakeCartRepo) CreateItem(ctx context.Context, item *models.CartItem) error {
	for _, existing := range f.store.CartItems {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			return errDuplicate("ux_cart_items_cart_product")
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.CreatedAt = time.Now()
	f.store.CartItems[item.ID] = item
	return nil
}

func (f *FakeCartRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	item, ok := f.store.CartItems[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = quantity
	return nil
}

func (f *FakeCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	if _, ok := f.store.CartItems[itemID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.store.CartItems, itemID)
	return nil
}

func (f *FakeCartRepo) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range f.store.CartItems {
		if item.CartID == cartID {
			delete(f.store.CartItems, id)
		}
	}
	return nil
}

func (f *FakeCartRepo) UpdateTotals(ctx context.Context, cartID uuid.UUID, totalQuantity, totalPriceCents int) error {
	cart, ok := f.store.Carts[cartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cart.TotalQuantity = totalQuantity
	cart.TotalPriceCents = totalPriceCents
	return nil
}

func (f *FakeCartRepo) itemsFor(cartID uuid.UUID) []models.CartItem {
	items := []models.CartItem{}
	for _, item := range f.store.CartItems {
		if item.CartID == cartID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items
}

// FakeOrderRepo

type FakeOrderRepo struct {
	store *Store
}

func (f *FakeOrderRepo) WithTx(tx *gorm.DB) uow.OrderRepository { return f }

func (f *FakeOrderRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	f.store.nextOrderNumber++
	return f.store.nextOrderNumber, nil
}

func (f *FakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	f.store.Orders[order.ID] = order
	return nil
}

func (f *FakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.store.Orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	events, _ := f.ListTrackingEvents(ctx, id)
	copied.TrackingEvents = events
	return &copied, nil
}

func (f *FakeOrderRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	order, ok := f.store.Orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "delivered_at":
			at := value.(time.Time)
			order.DeliveredAt = &at
		case "cancelled_at":
			at := value.(time.Time)
			order.CancelledAt = &at
		}
	}
	return nil
}

func (f *FakeOrderRepo) CreateTrackingEvent(ctx context.Context, event *models.TrackingEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	f.store.TrackingEvents = append(f.store.TrackingEvents, *event)
	return nil
}

func (f *FakeOrderRepo) ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error) {
	events := []models.TrackingEvent{}
	for _, event := range f.store.TrackingEvents {
		if event.OrderID == orderID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *FakeOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error) {
	filters := uow.OrderFilters{UserID: &userID}
	return f.List(ctx, params, filters)
}

func (f *FakeOrderRepo) List(ctx context.Context, params pagination.Params, filters uow.OrderFilters) ([]models.Order, int64, error) {
	matched := []models.Order{}
	for _, order := range f.store.Orders {
		if filters.UserID != nil && order.UserID != *filters.UserID {
			continue
		}
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		matched = append(matched, *order)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	params = params.Normalize()
	start := params.Offset()
	if start > len(matched) {
		return []models.Order{}, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *FakeOrderRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.store.Orders)), nil
}

func (f *FakeOrderRepo) CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error) {
	var count int64
	for _, order := range f.store.Orders {
		if order.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *FakeOrderRepo) TotalRevenueCents(ctx context.Context) (int64, error) {
	var total int64
	for _, order := range f.store.Orders {
		if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusRefunded {
			continue
		}
		total += int64(order.TotalCents)
	}
	return total, nil
}

func (f *FakeOrderRepo) SalesSeries(ctx context.Context, days int) ([]uow.SalesPoint, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	byDay := map[string]*uow.SalesPoint{}
	for _, order := range f.store.Orders {
		if order.CreatedAt.Before(cutoff) {
			continue
		}
		day := order.CreatedAt.Truncate(24 * time.Hour)
		key := day.Format("2006-01-02")
		point, ok := byDay[key]
		if !ok {
			point = &uow.SalesPoint{Day: day}
			byDay[key] = point
		}
		point.OrderCount++
		point.RevenueCents += int64(order.TotalCents)
	}
	out := make([]uow.SalesPoint, 0, len(byDay))
	for _, point := range byDay {
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// FakeReviewRepo

type FakeReviewRepo struct {
	store *Store
}

func (f *FakeReviewRepo) WithTx(tx *gorm.DB) uow.ReviewRepository { return f }

func (f *FakeReviewRepo) Create(ctx context.Context, review *models.Review) error {
	for _, existing := range f.store.Reviews {
		if existing.UserID == review.UserID && existing.ProductID == review.ProductID {
			return errDuplicate("ux_reviews_user_product")
		}
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = time.Now()
	f.store.Reviews[review.ID] = review
	return nil
}

func (f *FakeReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, ok := f.store.Reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *review
	return &copied, nil
}

func (f *FakeReviewRepo) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Review, error) {
	for _, review := range f.store.Reviews {
		if review.UserID == userID && review.ProductID == productID {
			copied := *review
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *FakeReviewRepo) ListApprovedByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, int64, error) {
	matched := []models.Review{}
	for _, review := range f.store.Reviews {
		if review.ProductID == productID && review.Status == enums.ReviewStatusApproved {
			matched = append(matched, *review)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	params = params.Normalize()
	start := params.Offset()
	if start > len(matched) {
		return []models.Review{}, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *FakeReviewRepo) AverageRating(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	sum := 0
	count := 0
	for _, review := range f.store.Reviews {
		if review.ProductID == productID && review.Status == enums.ReviewStatusApproved {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(count))), nil
}

func (f *FakeReviewRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReviewStatus) error {
	review, ok := f.store.Reviews[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	review.Status = status
	return nil
}

func (f *FakeReviewRepo) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	for _, review := range f.store.Reviews {
		if review.ProductID == productID {
			count++
		}
	}
	return count, nil
}

// FakeInventoryRepo

type FakeInventoryRepo struct {
	store *Store
}

func (f *FakeInventoryRepo) WithTx(tx *gorm.DB) uow.InventoryRepository { return f }

func (f *FakeInventoryRepo) Upsert(ctx context.Context, item *models.InventoryItem) error {
	for _, existing := range f.store.Inventory {
		if existing.ProductID == item.ProductID && existing.WarehouseID == item.WarehouseID {
			existing.AvailableQty = item.AvailableQty
			existing.ReorderLevel = item.ReorderLevel
			*item = *existing
			return nil
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.store.Inventory[item.ID] = item
	return nil
}

func (f *FakeInventoryRepo) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	for _, item := range f.store.Inventory {
		if item.ProductID == productID && item.WarehouseID == warehouseID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *FakeInventoryRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryItem, error) {
	out := []models.InventoryItem{}
	for _, item := range f.store.Inventory {
		if item.ProductID == productID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *FakeInventoryRepo) List(ctx context.Context, params pagination.Params) ([]models.InventoryItem, int64, error) {
	out := []models.InventoryItem{}
	for _, item := range f.store.Inventory {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	total := int64(len(out))
	params = params.Normalize()
	start := params.Offset()
	if start > len(out) {
		return []models.InventoryItem{}, total, nil
	}
	end := start + params.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (f *FakeInventoryRepo) Adjust(ctx context.Context, id uuid.UUID, delta int) error {
	item, ok := f.store.Inventory[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if item.AvailableQty+delta < 0 {
		return uow.ErrInsufficientStock
	}
	item.AvailableQty += delta
	return nil
}

func (f *FakeInventoryRepo) Reserve(ctx context.Context, productID uuid.UUID, qty int) error {
	remaining := qty
	for _, item := range f.store.Inventory {
		if item.ProductID != productID || remaining == 0 {
			continue
		}
		take := remaining
		if take > item.AvailableQty {
			take = item.AvailableQty
		}
		item.AvailableQty -= take
		item.ReservedQty += take
		remaining -= take
	}
	if remaining > 0 {
		return uow.ErrInsufficientStock
	}
	return nil
}

func (f *FakeInventoryRepo) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	remaining := qty
	for _, item := range f.store.Inventory {
		if item.ProductID != productID || remaining == 0 {
			continue
		}
		give := remaining
		if give > item.ReservedQty {
			give = item.ReservedQty
		}
		item.ReservedQty -= give
		item.AvailableQty += give
		remaining -= give
	}
	return nil
}

func (f *FakeInventoryRepo) AvailableForProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	total := 0
	for _, item := range f.store.Inventory {
		if item.ProductID == productID {
			total += item.AvailableQty
		}
	}
	return total, nil
}

func (f *FakeInventoryRepo) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	out := []models.InventoryItem{}
	for _, item := range f.store.Inventory {
		if item.AvailableQty <= item.ReorderLevel {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *FakeInventoryRepo) CountByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error) {
	var count int64
	for _, item := range f.store.Inventory {
		if item.WarehouseID == warehouseID {
			count++
		}
	}
	return count, nil
}

// FakeWarehouseRepo

type FakeWarehouseRepo struct {
	store *Store
}

func (f *FakeWarehouseRepo) WithTx(tx *gorm.DB) uow.WarehouseRepository { return f }

func (f *FakeWarehouseRepo) Create(ctx context.Context, warehouse *models.Warehouse) error {
	for _, existing := range f.store.Warehouses {
		if existing.Code == warehouse.Code {
			return errDuplicate("ux_warehouses_code")
		}
	}
	if warehouse.ID == uuid.Nil {
		warehouse.ID = uuid.New()
	}
	f.store.Warehouses[warehouse.ID] = warehouse
	return nil
}

func (f *FakeWarehouseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	warehouse, ok := f.store.Warehouses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *warehouse
	return &copied, nil
}

func (f *FakeWarehouseRepo) List(ctx context.Context) ([]models.Warehouse, error) {
	out := make([]models.Warehouse, 0, len(f.store.Warehouses))
	for _, warehouse := range f.store.Warehouses {
		out = append(out, *warehouse)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *FakeWarehouseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.store.Warehouses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.store.Warehouses, id)
	return nil
}

// FakeNotificationRepo

type FakeNotificationRepo struct {
	store *Store
}

func (f *FakeNotificationRepo) WithTx(tx *gorm.DB) uow.NotificationRepository { return f }

func (f *FakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	notification.CreatedAt = time.Now()
	f.store.Notifications[notification.ID] = notification
	return nil
}

func (f *FakeNotificationRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	notification, ok := f.store.Notifications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *notification
	return &copied, nil
}

func (f *FakeNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) ([]models.Notification, int64, error) {
	matched := []models.Notification{}
	for _, notification := range f.store.Notifications {
		if notification.UserID != userID {
			continue
		}
		if unreadOnly && notification.ReadAt != nil {
			continue
		}
		matched = append(matched, *notification)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	params = params.Normalize()
	start := params.Offset()
	if start > len(matched) {
		return []models.Notification{}, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *FakeNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	notification, ok := f.store.Notifications[id]
	if !ok || notification.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	notification.ReadAt = &now
	return nil
}

func (f *FakeNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, notification := range f.store.Notifications {
		if notification.UserID == userID && notification.ReadAt == nil {
			notification.ReadAt = &now
		}
	}
	return nil
}

func (f *FakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, notification := range f.store.Notifications {
		if notification.UserID == userID && notification.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

// FakePaymentRepo

type FakePaymentRepo struct {
	store *Store
}

func (f *FakePaymentRepo) WithTx(tx *gorm.DB) uow.PaymentRepository { return f }

func (f *FakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if payment.GatewayPaymentID != nil {
		for _, existing := range f.store.Payments {
			if existing.GatewayPaymentID != nil && *existing.GatewayPaymentID == *payment.GatewayPaymentID {
				return errDuplicate("ux_payments_gateway_payment_id")
			}
		}
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	f.store.Payments[payment.ID] = payment
	return nil
}

func (f *FakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, ok := f.store.Payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *payment
	return &copied, nil
}

func (f *FakePaymentRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	for _, payment := range f.store.Payments {
		if payment.OrderID == orderID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *FakePaymentRepo) FindByGatewayID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error) {
	for _, payment := range f.store.Payments {
		if payment.GatewayPaymentID != nil && *payment.GatewayPaymentID == gatewayPaymentID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *FakePaymentRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	payment, ok := f.store.Payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			payment.Status = value.(enums.PaymentStatus)
		case "gateway_payment_id":
			gatewayID := value.(string)
			payment.GatewayPaymentID = &gatewayID
		case "failure_reason":
			reason := value.(string)
			payment.FailureReason = &reason
		case "gateway_metadata":
			raw, _ := json.Marshal(value)
			meta := types.JSONMap{}
			_ = json.Unmarshal(raw, &meta)
			payment.GatewayMetadata = &meta
		}
	}
	return nil
}

func toUUIDs(value any) dbtypes.UUIDArray {
	switch v := value.(type) {
	case dbtypes.UUIDArray:
		return v
	case []uuid.UUID:
		return dbtypes.UUIDArray(v)
	default:
		raw, _ := json.Marshal(value)
		var ids []uuid.UUID
		_ = json.Unmarshal(raw, &ids)
		return dbtypes.UUIDArray(ids)
	}
}

type duplicateError struct {
	constraint string
}

func (d duplicateError) Error() string {
	return "duplicate key value violates unique constraint \"" + d.constraint + "\""
}

func errDuplicate(constraint string) error {
	return duplicateError{constraint: constraint}
}
