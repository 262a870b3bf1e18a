package memory

import (
	"context"
	"sort"

	"groqy/internal/common"
	"groqy/internal/domain/model"
)

type projectRepo struct {
	s *Store
}

func (r *projectRepo) view(p model.Project) model.Project {
	p.CreatorUsername, p.CreatorEmail = nil, nil
	if u, ok := r.s.users[p.CreatedBy]; ok {
		p.CreatorUsername = strPtr(u.Username)
		p.CreatorEmail = strPtr(u.Email)
	}
	return p
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	defer r.s.write(nil)()
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.CreatorUsername, stored.CreatorEmail = nil, nil
	r.s.projects[p.ID] = stored
	return nil
}

func (r *projectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	v := r.view(p)
	return &v, nil
}

func (r *projectRepo) List(ctx context.Context) ([]model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	projects := make([]model.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		projects = append(projects, r.view(p))
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	return projects, nil
}

func (r *projectRepo) Update(ctx context.Context, p *model.Project) error {
	defer r.s.write(nil)()
	cur, ok := r.s.projects[p.ID]
	if !ok {
		return common.ErrNotFound
	}
	cur.Title, cur.Description, cur.Status = p.Title, p.Description, p.Status
	cur.UpdatedAt = r.s.now()
	r.s.projects[p.ID] = cur
	p.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	defer r.s.write(nil)()
	if _, ok := r.s.projects[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.projects, id)
	detachProject(r.s, id)
	return nil
}
