package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (user_id, status, total_amount, delivery_address, payment_method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, menu_item_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	InsertStatusLogSQL = `
		INSERT INTO order_status_log (order_id, from_status, to_status, changed_by)
		VALUES ($1, $2, $3, $4)`

	// Guarded update: only succeeds if the status is still the one the
	// caller observed, so concurrent transitions cannot overwrite each
	// other out of order.
	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	GetOrderSQL = `
		SELECT id, user_id, status, total_amount, delivery_address, payment_method, created_at, updated_at
		FROM orders WHERE id = $1`

	GetOrdersByUserSQL = `
		SELECT id, user_id, status, total_amount, delivery_address, payment_method, created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`

	GetAllOrdersSQL = `
		SELECT id, user_id, status, total_amount, delivery_address, payment_method, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC`

	GetOrdersByStatusesSQL = `
		SELECT id, user_id, status, total_amount, delivery_address, payment_method, created_at, updated_at
		FROM orders WHERE status = ANY($1)
		ORDER BY created_at DESC`

	GetOrderItemsSQL = `
		SELECT oi.id, oi.order_id, oi.menu_item_id, oi.quantity, oi.price,
		       mi.id, mi.category_id, mi.name, mi.description, mi.price, mi.image_url, mi.created_at
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id ASC`
)

// Catalog queries
const (
	GetCategoriesSQL = `
		SELECT id, name FROM categories ORDER BY id ASC`

	GetMenuItemsSQL = `
		SELECT id, category_id, name, description, price, image_url, created_at
		FROM menu_items ORDER BY id ASC`

	GetMenuItemsByCategorySQL = `
		SELECT id, category_id, name, description, price, image_url, created_at
		FROM menu_items WHERE category_id = $1 ORDER BY id ASC`

	GetMenuItemSQL = `
		SELECT id, category_id, name, description, price, image_url, created_at
		FROM menu_items WHERE id = $1`
)

// Auth queries
const (
	GetActorByTokenSQL = `
		SELECT u.id, u.role
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1 AND t.expires_at > NOW()`
)
