// Command seed-db loads the catalog fixture and a set of demo accounts into
// PostgreSQL so a fresh deployment has something to sell.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/stridekart/fulfillment/internal/repository"
)

type productJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	Sizes         []string        `json:"sizes"`
	Colors        []string        `json:"colors"`
	ImageURLs     []string        `json:"imageUrls"`
	Featured      bool            `json:"featured"`
}

type userJSON struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	APIKey   string `json:"apiKey"`

	Addresses []struct {
		ID      string `json:"id"`
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zipCode"`
		Country string `json:"country"`
	} `json:"addresses"`
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		usersFile    string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json.gz", "path to gzipped catalog JSON file")
	flag.StringVar(&usersFile, "users-file", "db/seed/users.json", "path to demo users JSON file")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SKART_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SKART_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, usersFile, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, usersFile, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Products and users touch disjoint tables, so load them in parallel.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(seedCatalog(ctx, pool, catalogFile), "seed catalog")
	})
	g.Go(func() error {
		return errors.Wrap(seedUsers(ctx, pool, usersFile, pepper), "seed users")
	})
	return g.Wait()
}

const upsertProductSQL = `
INSERT INTO products (id, name, description, price, stock_quantity, category, brand, sizes, colors, image_urls, featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock_quantity = EXCLUDED.stock_quantity,
    category = EXCLUDED.category,
    brand = EXCLUDED.brand,
    sizes = EXCLUDED.sizes,
    colors = EXCLUDED.colors,
    image_urls = EXCLUDED.image_urls,
    featured = EXCLUDED.featured`

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	f, err := os.Open(catalogFile)
	if err != nil {
		return errors.Wrap(err, "open catalog file")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	var products []productJSON
	if err := json.NewDecoder(gz).Decode(&products); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		_, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Description, p.Price, p.StockQuantity,
			p.Category, p.Brand, p.Sizes, p.Colors, p.ImageURLs, p.Featured,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

const (
	upsertUserSQL = `
INSERT INTO users (id, email, full_name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    email = EXCLUDED.email,
    full_name = EXCLUDED.full_name,
    role = EXCLUDED.role`

	upsertAddressSQL = `
INSERT INTO addresses (id, user_id, street, city, state, zip_code, country)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    street = EXCLUDED.street,
    city = EXCLUDED.city,
    state = EXCLUDED.state,
    zip_code = EXCLUDED.zip_code,
    country = EXCLUDED.country`

	upsertAPIKeySQL = `
INSERT INTO api_keys (id, key_hash, user_id, name, active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (id) DO UPDATE SET
    key_hash = EXCLUDED.key_hash,
    user_id = EXCLUDED.user_id,
    name = EXCLUDED.name,
    active = TRUE`
)

func seedUsers(ctx context.Context, pool *pgxpool.Pool, usersFile, pepper string) error {
	slog.Info("reading users file", slog.String("path", usersFile))

	data, err := os.ReadFile(usersFile)
	if err != nil {
		return errors.Wrap(err, "read users file")
	}

	var users []userJSON
	if err := json.Unmarshal(data, &users); err != nil {
		return errors.Wrap(err, "parse users JSON")
	}

	for _, u := range users {
		role := strings.ToUpper(u.Role)
		if role == "" {
			role = "USER"
		}

		if _, err := pool.Exec(ctx, upsertUserSQL, u.ID, u.Email, u.FullName, role); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.ID)
		}

		for _, a := range u.Addresses {
			if _, err := pool.Exec(ctx, upsertAddressSQL,
				a.ID, u.ID, a.Street, a.City, a.State, a.ZipCode, a.Country,
			); err != nil {
				return errors.Wrapf(err, "upsert address %s", a.ID)
			}
		}

		if u.APIKey != "" {
			if _, err := pool.Exec(ctx, upsertAPIKeySQL,
				"seed-"+u.ID, hashKey(u.APIKey, pepper), u.ID, "Seed key for "+u.Email,
			); err != nil {
				return errors.Wrapf(err, "upsert api key for user %s", u.ID)
			}
		}

		slog.Info("upserted user", slog.String("id", u.ID), slog.String("email", u.Email), slog.String("role", role))
	}

	return nil
}

func hashKey(apiKey, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	return hex.EncodeToString(mac.Sum(nil))
}
