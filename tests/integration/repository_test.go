//go:build integration

package integration

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/stridekart/fulfillment/internal/domain/auth"
	"github.com/stridekart/fulfillment/internal/domain/inventory"
	"github.com/stridekart/fulfillment/internal/domain/order"
	"github.com/stridekart/fulfillment/internal/domain/user"
	"github.com/stridekart/fulfillment/internal/repository"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("fulfillment_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	pool, err = repository.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	return m.Run()
}

func seedUser(t *testing.T, id, email string, role user.Role) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, email, full_name, role) VALUES ($1, $2, $3, $4)`,
		id, email, "Test "+id, string(role),
	)
	require.NoError(t, err)
}

func seedAddress(t *testing.T, id, userID string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO addresses (id, user_id, street, city, state, zip_code, country)
		 VALUES ($1, $2, '1 Test St', 'Portland', 'OR', '97210', 'US')`,
		id, userID,
	)
	require.NoError(t, err)
}

func seedProduct(t *testing.T, id string, price string, stock int) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, description, price, stock_quantity, category, brand, sizes, colors, image_urls, featured)
		 VALUES ($1, 'Velocity Runner', 'test shoe', $2, $3, 'Running', 'Stridekart', '{"9","10"}', '{"Black"}', '{"products/test.jpg"}', TRUE)`,
		id, price, stock,
	)
	require.NoError(t, err)
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	seedProduct(t, id, "89.99", 12)

	repo := repository.NewProductRepository(pool)

	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Velocity Runner", p.Name)
	assert.True(t, decimal.RequireFromString("89.99").Equal(p.Price))
	assert.Equal(t, 12, p.StockQuantity)
	assert.Equal(t, []string{"9", "10"}, p.Sizes)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	_, err = repo.GetByID(ctx, "does-not-exist")
	require.Error(t, err)
}

func TestInventoryLedger_AtomicReservation(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	seedProduct(t, id, "49.99", 10)

	ledger := repository.NewInventoryLedger(pool)

	require.NoError(t, ledger.Reserve(ctx, id, 4))

	err := ledger.Reserve(ctx, id, 7)
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, id, stockErr.ProductID)

	require.NoError(t, ledger.Release(ctx, id, 4))
	require.NoError(t, ledger.Reserve(ctx, id, 10))
}

func TestInventoryLedger_ConcurrentReservationsNeverOversell(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	const stock = 20
	seedProduct(t, id, "49.99", stock)

	ledger := repository.NewInventoryLedger(pool)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.Reserve(ctx, id, 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, ok)

	var remaining int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT stock_quantity FROM products WHERE id = $1`, id).Scan(&remaining))
	assert.Equal(t, 0, remaining)
}

func TestOrderRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()
	addrID := uuid.New().String()
	seedUser(t, userID, userID+"@example.com", user.RoleUser)
	seedAddress(t, addrID, userID)

	repo := repository.NewOrderRepository(pool)

	o := &order.Order{
		ID:          uuid.New().String(),
		OrderNumber: "ORD-" + uuid.New().String()[:8],
		UserID:      userID,
		AddressID:   addrID,
		Items: []order.Item{{
			ProductID:   "p1",
			ProductName: "Velocity Runner",
			Quantity:    2,
			Size:        "9",
			Color:       "Black",
			UnitPrice:   decimal.RequireFromString("49.99"),
		}},
		TotalAmount:   decimal.RequireFromString("99.98"),
		Status:        order.StatusPending,
		PaymentMethod: order.PaymentUPI,
		PaymentID:     "pay-1",
		OrderDate:     time.Now().UTC().Truncate(time.Microsecond),
		DeliveryOTP:   "123456",
	}
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.True(t, o.TotalAmount.Equal(got.TotalAmount))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Velocity Runner", got.Items[0].ProductName)
	assert.True(t, decimal.RequireFromString("49.99").Equal(got.Items[0].UnitPrice))
	assert.Nil(t, got.DeliveryDate)

	// Lifecycle update round-trips the nullable fields.
	delivered := time.Now().UTC().Truncate(time.Microsecond)
	got.Status = order.StatusDelivered
	got.DeliveryDate = &delivered
	got.ReturnRequested = true
	got.ReturnRequestDate = &delivered
	got.ReturnReason = "wrong size"
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, again.Status)
	require.NotNil(t, again.DeliveryDate)
	assert.True(t, delivered.Equal(*again.DeliveryDate))
	assert.True(t, again.ReturnRequested)
	assert.Equal(t, "wrong size", again.ReturnReason)

	byUser, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	delivered2, err := repo.ListByStatus(ctx, order.StatusDelivered)
	require.NoError(t, err)
	assert.NotEmpty(t, delivered2)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, order.ErrNotFound)

	err = repo.Update(ctx, &order.Order{ID: "missing", Status: order.StatusPending})
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestUserAndAddressRepositories(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()
	addrID := uuid.New().String()
	seedUser(t, userID, userID+"@example.com", user.RoleAdmin)
	seedAddress(t, addrID, userID)

	users := repository.NewUserRepository(pool)
	u, err := users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)

	_, err = users.GetByID(ctx, "missing")
	require.ErrorIs(t, err, user.ErrNotFound)

	addrs := repository.NewAddressRepository(pool)
	a, err := addrs.GetByID(ctx, addrID)
	require.NoError(t, err)
	assert.Equal(t, userID, a.UserID)

	_, err = addrs.GetByID(ctx, "missing")
	require.ErrorIs(t, err, user.ErrAddressNotFound)
}

func TestAPIKeyRepository(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()
	seedUser(t, userID, userID+"@example.com", user.RoleUser)

	activeHash := uuid.New().String()
	inactiveHash := uuid.New().String()
	_, err := pool.Exec(ctx,
		`INSERT INTO api_keys (id, key_hash, user_id, name, active) VALUES
		 ($1, $2, $3, 'active key', TRUE),
		 ($4, $5, $3, 'revoked key', FALSE)`,
		uuid.New().String(), activeHash, userID, uuid.New().String(), inactiveHash,
	)
	require.NoError(t, err)

	repo := repository.NewAPIKeyRepository(pool)

	info, err := repo.FindByHash(ctx, activeHash)
	require.NoError(t, err)
	assert.Equal(t, userID, info.UserID)

	_, err = repo.FindByHash(ctx, inactiveHash)
	require.ErrorIs(t, err, auth.ErrKeyNotFound)
}
