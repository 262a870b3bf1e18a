package repository

import (
	"context"
	"database/sql"
	"fmt"

	"groqy/internal/domain/model"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	FindByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id string) error
}

type pgProjectRepository struct {
	db *sql.DB
}

func NewPgProjectRepository(db *sql.DB) ProjectRepository {
	return &pgProjectRepository{db: db}
}

const projectSelect = `
        SELECT p.id, p.title, p.description, p.created_by, p.status, p.created_at, p.updated_at,
               u.username, u.email
        FROM projects p
        LEFT JOIN users u ON p.created_by = u.id`

func scanProject(row interface{ Scan(...interface{}) error }) (*model.Project, error) {
	p := &model.Project{}
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedBy, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&p.CreatorUsername, &p.CreatorEmail)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProjectRepository) Create(ctx context.Context, p *model.Project) error {
	query := `INSERT INTO projects (id, title, description, created_by, status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.Title, p.Description, p.CreatedBy, p.Status).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, lookupError("pgProjectRepository.FindByID", err)
	}
	return p, nil
}

func (r *pgProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, projectSelect+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgProjectRepository.List: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("pgProjectRepository.List scan: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *pgProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `UPDATE projects SET title = $1, description = $2, status = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, p.Title, p.Description, p.Status, p.ID).Scan(&p.UpdatedAt)
	if err != nil {
		return lookupError("pgProjectRepository.Update", err)
	}
	return nil
}

func (r *pgProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return lookupError("pgProjectRepository.Delete", err)
	}
	return expectAffected(res)
}
