package cart

import (
	"context"
	"errors"

	"eshop-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const selectCart = `
SELECT id::text, owner_id::text, total_products, final_price, in_order, for_anonymous_user, created_at
FROM carts
`

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	// A brand-new cart persists with its defaults (count 0, total 0); there is
	// no line-item collection to recompute from yet.
	const q = `
INSERT INTO carts (owner_id, for_anonymous_user)
VALUES ($1, $2)
RETURNING id::text, owner_id::text, total_products, final_price, in_order, for_anonymous_user, created_at
`
	var cart domain.Cart
	var ownerID *string
	if err := r.pool.QueryRow(ctx, q, in.OwnerID, in.ForAnonymous).Scan(
		&cart.ID,
		&ownerID,
		&cart.TotalProducts,
		&cart.FinalPrice,
		&cart.InOrder,
		&cart.ForAnonymousUser,
		&cart.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// The owner already has an active cart, or the anonymous
			// singleton exists.
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	cart.OwnerID = ownerID
	return &cart, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Cart, error) {
	rows, err := r.pool.Query(ctx, selectCart+`ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Cart
	for rows.Next() {
		var cart domain.Cart
		var ownerID *string
		if err := rows.Scan(
			&cart.ID,
			&ownerID,
			&cart.TotalProducts,
			&cart.FinalPrice,
			&cart.InOrder,
			&cart.ForAnonymousUser,
			&cart.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.OwnerID = ownerID
		result = append(result, cart)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		lines, err := r.fetchLines(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Products = lines
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	return r.fetchCart(ctx, selectCart+`WHERE id = $1`, id)
}

func (r *postgresRepo) GetActiveByOwner(ctx context.Context, ownerID string) (*domain.Cart, error) {
	return r.fetchCart(ctx, selectCart+`WHERE owner_id = $1 AND NOT in_order`, ownerID)
}

func (r *postgresRepo) GetAnonymous(ctx context.Context) (*domain.Cart, error) {
	return r.fetchCart(ctx, selectCart+`WHERE for_anonymous_user`)
}

// EnsureAnonymous lazily creates the shared anonymous cart. The partial unique
// index on for_anonymous_user guarantees the singleton even when two requests
// race here.
func (r *postgresRepo) EnsureAnonymous(ctx context.Context) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (for_anonymous_user)
VALUES (true)
ON CONFLICT (for_anonymous_user) WHERE for_anonymous_user DO NOTHING
`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return nil, err
	}
	return r.GetAnonymous(ctx)
}

func (r *postgresRepo) SetInOrder(ctx context.Context, id string, inOrder bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE carts SET in_order = $1 WHERE id = $2`, inOrder, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddProduct is the get-or-create add. An existing line for the same
// (customer, cart, product) triple is returned untouched; a created line gets
// qty 1 and final_price = price, and the cart aggregates are recomputed in the
// same transaction.
func (r *postgresRepo) AddProduct(ctx context.Context, cartID string, customerID *string, product domain.Product) (*domain.CartProduct, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	existing, err := getLineByTriple(ctx, tx, cartID, customerID, product.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}
	if err == nil {
		existing.Product = &product
		return existing, false, nil
	}

	line := domain.CartProduct{
		CustomerID: customerID,
		CartID:     cartID,
		ProductID:  product.ID,
		Qty:        1,
		FinalPrice: product.Price,
		Product:    &product,
	}
	err = tx.QueryRow(ctx, `
INSERT INTO cart_products (customer_id, cart_id, product_id, qty, final_price)
VALUES ($1, $2, $3, 1, $4)
ON CONFLICT (customer_id, cart_id, product_id) DO NOTHING
RETURNING id::text, created_at
`, customerID, cartID, product.ID, product.Price).Scan(&line.ID, &line.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a race against a concurrent add; the line exists now.
			existing, err := getLineByTriple(ctx, tx, cartID, customerID, product.ID)
			if err != nil {
				return nil, false, err
			}
			existing.Product = &product
			return existing, false, nil
		}
		return nil, false, err
	}

	if err := updateCartTotals(ctx, tx, cartID); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return &line, true, nil
}

// ChangeQuantity sets the line quantity and recomputes its final_price from
// the product's current price, then recomputes the owning cart. qty 0 keeps
// the line with a zero total.
func (r *postgresRepo) ChangeQuantity(ctx context.Context, lineID string, qty int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var cartID string
	var price decimal.Decimal
	err = tx.QueryRow(ctx, `
SELECT cp.cart_id::text, p.price
FROM cart_products cp
JOIN products p ON p.id = cp.product_id
WHERE cp.id = $1
`, lineID).Scan(&cartID, &price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	finalPrice := price.Mul(decimal.NewFromInt(int64(qty)))
	if _, err := tx.Exec(ctx, `
UPDATE cart_products
SET qty = $1, final_price = $2
WHERE id = $3
`, qty, finalPrice, lineID); err != nil {
		return err
	}

	if err := updateCartTotals(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RemoveProduct deletes the line scoped to the given cart. Removing an
// already-removed line reports not found rather than succeeding silently.
func (r *postgresRepo) RemoveProduct(ctx context.Context, cartID, lineID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
DELETE FROM cart_products
WHERE id = $1 AND cart_id = $2
`, lineID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := updateCartTotals(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) fetchCart(ctx context.Context, q string, args ...interface{}) (*domain.Cart, error) {
	var cart domain.Cart
	var ownerID *string
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&cart.ID,
		&ownerID,
		&cart.TotalProducts,
		&cart.FinalPrice,
		&cart.InOrder,
		&cart.ForAnonymousUser,
		&cart.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	cart.OwnerID = ownerID

	lines, err := r.fetchLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Products = lines
	return &cart, nil
}

func (r *postgresRepo) fetchLines(ctx context.Context, cartID string) ([]domain.CartProduct, error) {
	const q = `
SELECT cp.id::text, cp.customer_id::text, cp.cart_id::text, cp.product_id::text, cp.qty, cp.final_price, cp.created_at,
       p.id::text, p.category_id::text, p.title, COALESCE(p.description, ''), COALESCE(p.image_url, ''), p.price, p.slug, p.created_at,
       c.id::text, c.name, c.slug, c.created_at
FROM cart_products cp
JOIN products p ON p.id = cp.product_id
JOIN categories c ON c.id = p.category_id
WHERE cp.cart_id = $1
ORDER BY cp.created_at ASC
`
	rows, err := r.pool.Query(ctx, q, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartProduct
	for rows.Next() {
		var line domain.CartProduct
		var customerID *string
		var p domain.Product
		var c domain.Category
		if err := rows.Scan(
			&line.ID, &customerID, &line.CartID, &line.ProductID, &line.Qty, &line.FinalPrice, &line.CreatedAt,
			&p.ID, &p.CategoryID, &p.Title, &p.Description, &p.ImageURL, &p.Price, &p.Slug, &p.CreatedAt,
			&c.ID, &c.Name, &c.Slug, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		line.CustomerID = customerID
		p.Category = &c
		line.Product = &p
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func getLineByTriple(ctx context.Context, tx pgx.Tx, cartID string, customerID *string, productID string) (*domain.CartProduct, error) {
	var line domain.CartProduct
	var custID *string
	err := tx.QueryRow(ctx, `
SELECT id::text, customer_id::text, cart_id::text, product_id::text, qty, final_price, created_at
FROM cart_products
WHERE cart_id = $1 AND product_id = $2 AND customer_id IS NOT DISTINCT FROM $3
`, cartID, productID, customerID).Scan(
		&line.ID, &custID, &line.CartID, &line.ProductID, &line.Qty, &line.FinalPrice, &line.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	line.CustomerID = custID
	return &line, nil
}

// updateCartTotals is the single aggregate-recomputation pathway: every
// mutation runs it inside its transaction so total_products and final_price
// always derive from the current line set. Sum over an empty cart is 0.
func updateCartTotals(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET total_products = (
	SELECT COUNT(*)
	FROM cart_products
	WHERE cart_id = $1
),
    final_price = COALESCE((
	SELECT SUM(final_price)
	FROM cart_products
	WHERE cart_id = $1
), 0)
WHERE id = $1
`, cartID)
	return err
}
