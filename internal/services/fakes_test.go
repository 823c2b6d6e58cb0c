package services

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"testing"
	"time"

	"retail_backoffice/internal/audit"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newTestDB returns an in-memory database that supplies real Begin/Commit
// semantics for service transactions. The fakes below keep their own state,
// so no tables are needed.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// memoryStore is implemented by fakes whose state must follow the service
// transaction: snapshotted at Begin, restored on Rollback, kept on Commit.
type memoryStore interface {
	snapshot() interface{}
	restore(interface{})
}

// txDriver is a database/sql driver that executes no SQL at all. Its whole
// job is tying the in-memory fakes to transaction boundaries, so an aborted
// service operation leaves the fakes exactly as it found them.
type txDriver struct{}

var (
	txDriverOnce sync.Once
	txFixturesMu sync.Mutex
	txFixtures   = map[string][]memoryStore{}
	txFixtureSeq int
)

func (txDriver) Open(name string) (driver.Conn, error) {
	txFixturesMu.Lock()
	stores := txFixtures[name]
	txFixturesMu.Unlock()
	return &txConn{stores: stores}, nil
}

type txConn struct{ stores []memoryStore }

func (c *txConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("statements are not supported")
}

func (c *txConn) Close() error { return nil }

func (c *txConn) Begin() (driver.Tx, error) {
	saved := make([]interface{}, len(c.stores))
	for i, store := range c.stores {
		saved[i] = store.snapshot()
	}
	return &txHandle{stores: c.stores, saved: saved}, nil
}

type txHandle struct {
	stores []memoryStore
	saved  []interface{}
}

func (tx *txHandle) Commit() error { return nil }

func (tx *txHandle) Rollback() error {
	for i, store := range tx.stores {
		store.restore(tx.saved[i])
	}
	return nil
}

// newRollbackDB returns a database whose transactions snapshot and restore
// the given fakes. Used by tests that assert state after an aborted
// operation.
func newRollbackDB(t *testing.T, stores ...memoryStore) *sql.DB {
	t.Helper()
	txDriverOnce.Do(func() { sql.Register("fixturetx", txDriver{}) })
	txFixturesMu.Lock()
	txFixtureSeq++
	name := fmt.Sprintf("fixture-%d", txFixtureSeq)
	txFixtures[name] = stores
	txFixturesMu.Unlock()
	db, err := sql.Open("fixturetx", name)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// recordingSink captures emitted audit entries for assertions.
type recordingSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *recordingSink) Emit(entry audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// --- fake repositories ---

type fakeProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*models.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{nextID: 1, products: make(map[int64]*models.Product)}
}

func (f *fakeProductRepo) add(p models.Product) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID
	f.nextID++
	f.products[p.ID] = &p
	return &p
}

func (f *fakeProductRepo) Create(_ repositories.SQLExecutor, product *models.Product) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product.ID = f.nextID
	f.nextID++
	stored := *product
	f.products[product.ID] = &stored
	return product.ID, nil
}

func (f *fakeProductRepo) get(tenantID, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProductRepo) GetByID(tenantID, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(tenantID, id)
}

func (f *fakeProductRepo) GetBySKU(tenantID int64, sku string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.TenantID == tenantID && p.SKU == sku {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeProductRepo) GetProducts(tenantID int64, _ models.ProductFilters) ([]models.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (f *fakeProductRepo) Update(_ repositories.SQLExecutor, product *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(product.TenantID, product.ID); err != nil {
		return err
	}
	stored := *product
	f.products[product.ID] = &stored
	return nil
}

func (f *fakeProductRepo) Delete(_ repositories.SQLExecutor, tenantID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(tenantID, id); err != nil {
		return err
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) LockStock(_ repositories.SQLExecutor, tenantID, id int64) (decimal.Decimal, int64, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.get(tenantID, id)
	if err != nil {
		return decimal.Decimal{}, 0, "", err
	}
	return p.Price, p.StockQty, p.Name, nil
}

func (f *fakeProductRepo) AdjustStock(_ repositories.SQLExecutor, tenantID, id, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.TenantID != tenantID {
		return 0, repositories.ErrNotFound
	}
	p.StockQty += delta
	return p.StockQty, nil
}

type productSnapshot struct {
	nextID   int64
	products map[int64]models.Product
}

func (f *fakeProductRepo) snapshot() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := productSnapshot{nextID: f.nextID, products: make(map[int64]models.Product, len(f.products))}
	for id, p := range f.products {
		s.products[id] = *p
	}
	return s
}

func (f *fakeProductRepo) restore(v interface{}) {
	s := v.(productSnapshot)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = s.nextID
	f.products = make(map[int64]*models.Product, len(s.products))
	for id, p := range s.products {
		copied := p
		f.products[id] = &copied
	}
}

type fakeStockRepo struct {
	mu           sync.Mutex
	nextID       int64
	transactions []models.StockTransaction
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{nextID: 1}
}

func (f *fakeStockRepo) Create(_ repositories.SQLExecutor, tx *models.StockTransaction) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx.ID = f.nextID
	f.nextID++
	f.transactions = append(f.transactions, *tx)
	return tx.ID, nil
}

func (f *fakeStockRepo) GetHistory(tenantID int64, filters models.StockHistoryFilters) ([]models.StockTransaction, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StockTransaction
	for _, tx := range f.transactions {
		if tx.TenantID != tenantID {
			continue
		}
		if filters.ProductID != nil && tx.ProductID != *filters.ProductID {
			continue
		}
		if filters.Reason != nil && tx.Reason != *filters.Reason {
			continue
		}
		out = append(out, tx)
	}
	return out, len(out), nil
}

func (f *fakeStockRepo) SumDeltas(tenantID, productID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, tx := range f.transactions {
		if tx.TenantID == tenantID && tx.ProductID == productID {
			sum += tx.Delta
		}
	}
	return sum, nil
}

type stockSnapshot struct {
	nextID       int64
	transactions []models.StockTransaction
}

func (f *fakeStockRepo) snapshot() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return stockSnapshot{
		nextID:       f.nextID,
		transactions: append([]models.StockTransaction(nil), f.transactions...),
	}
}

func (f *fakeStockRepo) restore(v interface{}) {
	s := v.(stockSnapshot)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = s.nextID
	f.transactions = append([]models.StockTransaction(nil), s.transactions...)
}

type fakeSaleRepo struct {
	mu     sync.Mutex
	nextID int64
	sales  map[int64]*models.Sale
	items  []models.SaleItem
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{nextID: 1, sales: make(map[int64]*models.Sale)}
}

func (f *fakeSaleRepo) CreateSale(_ repositories.SQLExecutor, sale *models.Sale) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sale.ID = f.nextID
	f.nextID++
	stored := *sale
	stored.Items = nil
	f.sales[sale.ID] = &stored
	return sale.ID, nil
}

func (f *fakeSaleRepo) CreateSaleItem(_ repositories.SQLExecutor, item *models.SaleItem) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = f.nextID
	f.nextID++
	f.items = append(f.items, *item)
	return item.ID, nil
}

func (f *fakeSaleRepo) GetByID(tenantID, id int64) (*models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok || s.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	copied := *s
	for _, item := range f.items {
		if item.SaleID == id {
			copied.Items = append(copied.Items, item)
		}
	}
	return &copied, nil
}

func (f *fakeSaleRepo) GetItems(tenantID, saleID int64) ([]models.SaleItem, error) {
	sale, err := f.GetByID(tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return sale.Items, nil
}

func (f *fakeSaleRepo) GetSales(tenantID int64, _ models.SaleFilters) ([]models.Sale, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Sale
	for _, s := range f.sales {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (f *fakeSaleRepo) HasReturnForSale(_ repositories.SQLExecutor, tenantID, originalSaleID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sales {
		if s.TenantID == tenantID && s.Type == models.SaleTypeReturn &&
			s.OriginalSaleID != nil && *s.OriginalSaleID == originalSaleID {
			return true, nil
		}
	}
	return false, nil
}

type saleSnapshot struct {
	nextID int64
	sales  map[int64]models.Sale
	items  []models.SaleItem
}

func (f *fakeSaleRepo) snapshot() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := saleSnapshot{
		nextID: f.nextID,
		sales:  make(map[int64]models.Sale, len(f.sales)),
		items:  append([]models.SaleItem(nil), f.items...),
	}
	for id, sale := range f.sales {
		s.sales[id] = *sale
	}
	return s
}

func (f *fakeSaleRepo) restore(v interface{}) {
	s := v.(saleSnapshot)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = s.nextID
	f.sales = make(map[int64]*models.Sale, len(s.sales))
	for id, sale := range s.sales {
		copied := sale
		f.sales[id] = &copied
	}
	f.items = append([]models.SaleItem(nil), s.items...)
}

type fakeDebtRepo struct {
	mu       sync.Mutex
	nextID   int64
	debts    map[int64]*models.CustomerDebt
	payments []models.DebtPayment
}

func newFakeDebtRepo() *fakeDebtRepo {
	return &fakeDebtRepo{nextID: 1, debts: make(map[int64]*models.CustomerDebt)}
}

func (f *fakeDebtRepo) Create(_ repositories.SQLExecutor, debt *models.CustomerDebt) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	debt.ID = f.nextID
	f.nextID++
	debt.PaidAmount = decimal.Zero
	debt.RemainingAmount = debt.Amount
	debt.Status = models.DebtStatusUnpaid
	stored := *debt
	f.debts[debt.ID] = &stored
	return debt.ID, nil
}

func (f *fakeDebtRepo) get(tenantID, id int64) (*models.CustomerDebt, error) {
	d, ok := f.debts[id]
	if !ok || d.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDebtRepo) GetByID(tenantID, id int64) (*models.CustomerDebt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(tenantID, id)
}

func (f *fakeDebtRepo) GetByIDForUpdate(_ repositories.SQLExecutor, tenantID, id int64) (*models.CustomerDebt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(tenantID, id)
}

func (f *fakeDebtRepo) GetDebts(tenantID int64, filters models.DebtFilters) ([]models.CustomerDebt, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CustomerDebt
	for _, d := range f.debts {
		if d.TenantID != tenantID {
			continue
		}
		if filters.ClientID != nil && d.ClientID != *filters.ClientID {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (f *fakeDebtRepo) UpdateBalances(_ repositories.SQLExecutor, debt *models.CustomerDebt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(debt.TenantID, debt.ID); err != nil {
		return err
	}
	stored := *debt
	f.debts[debt.ID] = &stored
	return nil
}

func (f *fakeDebtRepo) CreatePayment(_ repositories.SQLExecutor, payment *models.DebtPayment) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment.ID = f.nextID
	f.nextID++
	f.payments = append(f.payments, *payment)
	return payment.ID, nil
}

func (f *fakeDebtRepo) GetPayments(tenantID, debtID int64) ([]models.DebtPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DebtPayment
	for _, p := range f.payments {
		if p.TenantID == tenantID && p.DebtID == debtID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDebtRepo) SumOpenRemaining(_ repositories.SQLExecutor, tenantID, clientID int64) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, d := range f.debts {
		if d.TenantID == tenantID && d.ClientID == clientID && d.Status != models.DebtStatusPaid {
			sum = sum.Add(d.RemainingAmount)
		}
	}
	return sum, nil
}

type fakeClientRepo struct {
	mu      sync.Mutex
	nextID  int64
	clients map[int64]*models.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{nextID: 1, clients: make(map[int64]*models.Client)}
}

func (f *fakeClientRepo) add(c models.Client) *models.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.nextID
	f.nextID++
	f.clients[c.ID] = &c
	return &c
}

func (f *fakeClientRepo) Create(_ repositories.SQLExecutor, client *models.Client) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	client.ID = f.nextID
	f.nextID++
	client.DebtAmount = decimal.Zero
	stored := *client
	f.clients[client.ID] = &stored
	return client.ID, nil
}

func (f *fakeClientRepo) GetByID(tenantID, id int64) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok || c.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeClientRepo) GetClients(tenantID int64, _ models.ClientFilters) ([]models.Client, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Client
	for _, c := range f.clients {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (f *fakeClientRepo) Update(_ repositories.SQLExecutor, client *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.clients[client.ID]
	if !ok || existing.TenantID != client.TenantID {
		return repositories.ErrNotFound
	}
	stored := *client
	stored.DebtAmount = existing.DebtAmount
	f.clients[client.ID] = &stored
	return nil
}

func (f *fakeClientRepo) Delete(_ repositories.SQLExecutor, tenantID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok || c.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	delete(f.clients, id)
	return nil
}

func (f *fakeClientRepo) UpdateDebtAmount(_ repositories.SQLExecutor, tenantID, clientID int64, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[clientID]
	if !ok || c.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	c.DebtAmount = amount
	return nil
}

type fakeGiftCardRepo struct {
	mu     sync.Mutex
	nextID int64
	cards  map[int64]*models.GiftCard
	usages []models.GiftCardUsage
}

func newFakeGiftCardRepo() *fakeGiftCardRepo {
	return &fakeGiftCardRepo{nextID: 1, cards: make(map[int64]*models.GiftCard)}
}

func (f *fakeGiftCardRepo) Create(_ repositories.SQLExecutor, card *models.GiftCard) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card.ID = f.nextID
	f.nextID++
	card.RemainingAmount = card.Amount
	stored := *card
	f.cards[card.ID] = &stored
	return card.ID, nil
}

func (f *fakeGiftCardRepo) get(tenantID, id int64) (*models.GiftCard, error) {
	c, ok := f.cards[id]
	if !ok || c.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeGiftCardRepo) GetByID(tenantID, id int64) (*models.GiftCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(tenantID, id)
}

func (f *fakeGiftCardRepo) GetByIDForUpdate(_ repositories.SQLExecutor, tenantID, id int64) (*models.GiftCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(tenantID, id)
}

func (f *fakeGiftCardRepo) getByCode(tenantID int64, code string) (*models.GiftCard, error) {
	for _, c := range f.cards {
		if c.TenantID == tenantID && c.Code == code {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeGiftCardRepo) GetByCode(tenantID int64, code string) (*models.GiftCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getByCode(tenantID, code)
}

func (f *fakeGiftCardRepo) GetByCodeForUpdate(_ repositories.SQLExecutor, tenantID int64, code string) (*models.GiftCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getByCode(tenantID, code)
}

func (f *fakeGiftCardRepo) GetGiftCards(tenantID int64, _ models.GiftCardFilters) ([]models.GiftCard, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GiftCard
	for _, c := range f.cards {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (f *fakeGiftCardRepo) UpdateBalance(_ repositories.SQLExecutor, card *models.GiftCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(card.TenantID, card.ID); err != nil {
		return err
	}
	stored := *card
	f.cards[card.ID] = &stored
	return nil
}

func (f *fakeGiftCardRepo) UpdateStatus(_ repositories.SQLExecutor, tenantID, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok || c.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeGiftCardRepo) CreateUsage(_ repositories.SQLExecutor, usage *models.GiftCardUsage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	usage.ID = f.nextID
	f.nextID++
	if usage.CreatedAt.IsZero() {
		usage.CreatedAt = time.Now()
	}
	f.usages = append(f.usages, *usage)
	return usage.ID, nil
}

func (f *fakeGiftCardRepo) GetUsages(tenantID, cardID int64) ([]models.GiftCardUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GiftCardUsage
	for _, u := range f.usages {
		if u.TenantID == tenantID && u.GiftCardID == cardID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeGiftCardRepo) FindUsageForSale(_ repositories.SQLExecutor, tenantID, cardID, saleID int64) (*models.GiftCardUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.usages {
		if u.TenantID == tenantID && u.GiftCardID == cardID && u.SaleID == saleID {
			copied := u
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeGiftCardRepo) DeleteUsage(_ repositories.SQLExecutor, tenantID, usageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.usages {
		if u.TenantID == tenantID && u.ID == usageID {
			f.usages = append(f.usages[:i], f.usages[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type giftCardSnapshot struct {
	nextID int64
	cards  map[int64]models.GiftCard
	usages []models.GiftCardUsage
}

func (f *fakeGiftCardRepo) snapshot() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := giftCardSnapshot{
		nextID: f.nextID,
		cards:  make(map[int64]models.GiftCard, len(f.cards)),
		usages: append([]models.GiftCardUsage(nil), f.usages...),
	}
	for id, c := range f.cards {
		s.cards[id] = *c
	}
	return s
}

func (f *fakeGiftCardRepo) restore(v interface{}) {
	s := v.(giftCardSnapshot)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = s.nextID
	f.cards = make(map[int64]*models.GiftCard, len(s.cards))
	for id, c := range s.cards {
		copied := c
		f.cards[id] = &copied
	}
	f.usages = append([]models.GiftCardUsage(nil), s.usages...)
}

type fakeDiscountRepo struct {
	mu        sync.Mutex
	nextID    int64
	discounts map[int64]*models.Discount
}

func newFakeDiscountRepo() *fakeDiscountRepo {
	return &fakeDiscountRepo{nextID: 1, discounts: make(map[int64]*models.Discount)}
}

func (f *fakeDiscountRepo) add(d models.Discount) *models.Discount {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = f.nextID
	f.nextID++
	f.discounts[d.ID] = &d
	return &d
}

func (f *fakeDiscountRepo) Create(_ repositories.SQLExecutor, discount *models.Discount) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	discount.ID = f.nextID
	f.nextID++
	stored := *discount
	f.discounts[discount.ID] = &stored
	return discount.ID, nil
}

func (f *fakeDiscountRepo) GetByID(tenantID, id int64) (*models.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discounts[id]
	if !ok || d.TenantID != tenantID {
		return nil, repositories.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDiscountRepo) GetByCode(tenantID int64, code string) (*models.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.discounts {
		if d.TenantID == tenantID && d.Code == code {
			copied := *d
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeDiscountRepo) GetDiscounts(tenantID int64, _ models.DiscountFilters) ([]models.Discount, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Discount
	for _, d := range f.discounts {
		if d.TenantID == tenantID {
			out = append(out, *d)
		}
	}
	return out, len(out), nil
}

func (f *fakeDiscountRepo) Update(_ repositories.SQLExecutor, discount *models.Discount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.discounts[discount.ID]
	if !ok || existing.TenantID != discount.TenantID {
		return repositories.ErrNotFound
	}
	stored := *discount
	f.discounts[discount.ID] = &stored
	return nil
}

func (f *fakeDiscountRepo) Delete(_ repositories.SQLExecutor, tenantID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discounts[id]
	if !ok || d.TenantID != tenantID {
		return repositories.ErrNotFound
	}
	delete(f.discounts, id)
	return nil
}

func (f *fakeDiscountRepo) IncrementUsage(_ repositories.SQLExecutor, tenantID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.discounts[id]
	if !ok || d.TenantID != tenantID {
		return repositories.ErrUsageLimitReached
	}
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return repositories.ErrUsageLimitReached
	}
	d.UsageCount++
	return nil
}

type discountSnapshot struct {
	nextID    int64
	discounts map[int64]models.Discount
}

func (f *fakeDiscountRepo) snapshot() interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := discountSnapshot{nextID: f.nextID, discounts: make(map[int64]models.Discount, len(f.discounts))}
	for id, d := range f.discounts {
		s.discounts[id] = *d
	}
	return s
}

func (f *fakeDiscountRepo) restore(v interface{}) {
	s := v.(discountSnapshot)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = s.nextID
	f.discounts = make(map[int64]*models.Discount, len(s.discounts))
	for id, d := range s.discounts {
		copied := d
		f.discounts[id] = &copied
	}
}
