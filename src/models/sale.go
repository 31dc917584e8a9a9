package models

import (
	"database/sql"
	"errors"
	"time"
)

var ErrSaleNotFound = errors.New("sale not found")

// Sale is a single transaction record: one SKU sold at one branch.
type Sale struct {
	ID            int64     `json:"id"`
	SKU           string    `json:"sku"`
	Units         int       `json:"units"`
	Price         float64   `json:"price"`
	Branch        string    `json:"branch"`
	SoldAt        time.Time `json:"soldAt"`
	CreatedBy     int64     `json:"-"`
	CreatedByName string    `json:"createdBy,omitempty"`
}

// SaleStore provides SQL access to the sales table.
type SaleStore struct {
	db *sql.DB
}

func NewSaleStore(db *sql.DB) *SaleStore {
	return &SaleStore{db: db}
}

// Create inserts the sale and sets its ID.
func (s *SaleStore) Create(sale *Sale) error {
	query := `
	INSERT INTO sales (sku, units, price, branch, sold_at, created_by)
	VALUES (?, ?, ?, ?, ?, ?)`

	res, err := s.db.Exec(query, sale.SKU, sale.Units, sale.Price, sale.Branch, sale.SoldAt, sale.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sale.ID = id
	return nil
}

// GetByID returns one sale, with the creator's username resolved.
func (s *SaleStore) GetByID(id int64) (*Sale, error) {
	query := `
	SELECT s.id, s.sku, s.units, s.price, s.branch, s.sold_at, s.created_by, u.username
	FROM sales s
	JOIN users u ON u.id = s.created_by
	WHERE s.id = ?`

	row := s.db.QueryRow(query, id)
	var sale Sale
	err := row.Scan(&sale.ID, &sale.SKU, &sale.Units, &sale.Price, &sale.Branch, &sale.SoldAt, &sale.CreatedBy, &sale.CreatedByName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// List returns sales matching the optional branch and date filters, newest first.
// Zero-value times mean "unbounded" on that side.
func (s *SaleStore) List(branch string, from, to time.Time) ([]Sale, error) {
	query := `
	SELECT s.id, s.sku, s.units, s.price, s.branch, s.sold_at, s.created_by, u.username
	FROM sales s
	JOIN users u ON u.id = s.created_by
	WHERE 1=1`
	args := []interface{}{}

	if branch != "" {
		query += " AND s.branch = ?"
		args = append(args, branch)
	}
	if !from.IsZero() {
		query += " AND s.sold_at >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		query += " AND s.sold_at <= ?"
		args = append(args, to)
	}
	query += " ORDER BY s.sold_at DESC, s.id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.SKU, &sale.Units, &sale.Price, &sale.Branch, &sale.SoldAt, &sale.CreatedBy, &sale.CreatedByName); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if sales == nil {
		sales = []Sale{}
	}
	return sales, nil
}

// FindSalesBetween returns every sale whose sold_at falls within [start, end],
// regardless of branch. Branch filtering happens in the aggregation step.
func (s *SaleStore) FindSalesBetween(start, end time.Time) ([]Sale, error) {
	query := `
	SELECT id, sku, units, price, branch, sold_at, created_by
	FROM sales
	WHERE sold_at BETWEEN ? AND ?`

	rows, err := s.db.Query(query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.SKU, &sale.Units, &sale.Price, &sale.Branch, &sale.SoldAt, &sale.CreatedBy); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

// Delete removes a sale by ID.
func (s *SaleStore) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM sales WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSaleNotFound
	}
	return nil
}
