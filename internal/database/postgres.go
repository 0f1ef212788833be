package database

import (
	"context"
	"fmt"

	"world-server/internal/models"
	"world-server/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, email, created_at`

	user := &models.User{PasswordHash: string(hash)}
	err = db.pool.QueryRow(ctx, query, req.Username, req.Email, string(hash)).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, username, email, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Character Repository Implementation
func (db *PostgresDB) GetOrCreateCharacter(ctx context.Context, userID int, name string, spawnX, spawnY float64) (*models.Character, error) {
	query := `
		INSERT INTO characters (user_id, name, x, y, body_style, hair_style, shirt_style, pants_style)
		VALUES ($1, $2, $3, $4, 'body_01', 'hair_01', 'shirt_01', 'pants_01')
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, name, x, y, body_style, hair_style, shirt_style, pants_style`

	ch := &models.Character{}
	err := db.pool.QueryRow(ctx, query, userID, name, spawnX, spawnY).Scan(
		&ch.ID, &ch.UserID, &ch.Name, &ch.X, &ch.Y,
		&ch.Appearance.BodyStyle, &ch.Appearance.HairStyle,
		&ch.Appearance.ShirtStyle, &ch.Appearance.PantsStyle,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load character: %w", err)
	}

	return ch, nil
}

func (db *PostgresDB) SavePosition(ctx context.Context, characterID int, x, y float64) error {
	query := `UPDATE characters SET x = $2, y = $3 WHERE id = $1`
	_, err := db.pool.Exec(ctx, query, characterID, x, y)
	return err
}

func (db *PostgresDB) SaveAppearance(ctx context.Context, characterID int, appearance models.Appearance) error {
	query := `
		UPDATE characters
		SET body_style = $2, hair_style = $3, shirt_style = $4, pants_style = $5
		WHERE id = $1`
	_, err := db.pool.Exec(ctx, query, characterID,
		appearance.BodyStyle, appearance.HairStyle, appearance.ShirtStyle, appearance.PantsStyle)
	return err
}

// Room Repository Implementation
func (db *PostgresDB) CreateRoom(ctx context.Context, name string, hostID, maxPlayers int) (*models.Room, error) {
	query := `
		INSERT INTO rooms (name, host_id, max_players, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, name, host_id, max_players, status, created_at`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, name, hostID, maxPlayers, models.RoomStatusWaiting).Scan(
		&room.ID, &room.Name, &room.HostID, &room.MaxPlayers, &room.Status, &room.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

func (db *PostgresDB) UpdateRoomStatus(ctx context.Context, roomID int, status string) error {
	query := `UPDATE rooms SET status = $2 WHERE id = $1`
	_, err := db.pool.Exec(ctx, query, roomID, status)
	return err
}

func (db *PostgresDB) ListActiveRooms(ctx context.Context) ([]*models.Room, error) {
	query := `
		SELECT id, name, host_id, max_players, status, created_at
		FROM rooms
		WHERE status != $1
		ORDER BY id`

	rows, err := db.pool.Query(ctx, query, models.RoomStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.HostID, &room.MaxPlayers, &room.Status, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, nil
}

// Inventory Repository Implementation
func (db *PostgresDB) GetInventoryItem(ctx context.Context, id int) (*models.InventoryItem, error) {
	query := `SELECT id, user_id, catalog_item_id, quantity FROM inventory_items WHERE id = $1`

	item := &models.InventoryItem{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&item.ID, &item.UserID, &item.CatalogItemID, &item.Quantity,
	)
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (db *PostgresDB) GetCatalogItem(ctx context.Context, id int) (*models.CatalogItem, error) {
	query := `SELECT id, name, placeable FROM catalog_items WHERE id = $1`

	item := &models.CatalogItem{}
	err := db.pool.QueryRow(ctx, query, id).Scan(&item.ID, &item.Name, &item.Placeable)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// PlacedItem Repository Implementation
//
// PlaceItem decrements the inventory row and inserts the placement inside
// one transaction, so a failed decrement never leaves a phantom placement.
func (db *PostgresDB) PlaceItem(ctx context.Context, inventoryItemID, roomID, userID int, x, y float64, rotation, zIndex int) (*models.PlacedItem, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var catalogItemID int
	consume := `
		UPDATE inventory_items
		SET quantity = quantity - 1
		WHERE id = $1 AND user_id = $2 AND quantity > 0
		RETURNING catalog_item_id`
	err = tx.QueryRow(ctx, consume, inventoryItemID, userID).Scan(&catalogItemID)
	if err == pgx.ErrNoRows {
		return nil, ErrInsufficientInventory
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume inventory item: %w", err)
	}

	insert := `
		INSERT INTO placed_items (room_id, catalog_item_id, placed_by, x, y, rotation, z_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	placed := &models.PlacedItem{
		RoomID:        roomID,
		CatalogItemID: catalogItemID,
		PlacedBy:      userID,
		X:             x,
		Y:             y,
		Rotation:      rotation,
		ZIndex:        zIndex,
	}
	if err := tx.QueryRow(ctx, insert, roomID, catalogItemID, userID, x, y, rotation, zIndex).Scan(&placed.ID); err != nil {
		return nil, fmt.Errorf("failed to insert placement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return placed, nil
}

func (db *PostgresDB) UpdatePlacedItem(ctx context.Context, id int, x, y float64, rotation, zIndex int) error {
	query := `UPDATE placed_items SET x = $2, y = $3, rotation = $4, z_index = $5 WHERE id = $1`
	_, err := db.pool.Exec(ctx, query, id, x, y, rotation, zIndex)
	return err
}

func (db *PostgresDB) DeletePlacedItem(ctx context.Context, id int) error {
	query := `DELETE FROM placed_items WHERE id = $1`
	_, err := db.pool.Exec(ctx, query, id)
	return err
}

func (db *PostgresDB) ListPlacedItems(ctx context.Context, roomID int) ([]*models.PlacedItem, error) {
	query := `
		SELECT id, room_id, catalog_item_id, placed_by, x, y, rotation, z_index
		FROM placed_items
		WHERE room_id = $1
		ORDER BY z_index, id`

	rows, err := db.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.PlacedItem
	for rows.Next() {
		item := &models.PlacedItem{}
		if err := rows.Scan(&item.ID, &item.RoomID, &item.CatalogItemID, &item.PlacedBy,
			&item.X, &item.Y, &item.Rotation, &item.ZIndex); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}
