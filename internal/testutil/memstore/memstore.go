// Package memstore is an in-memory implementation of the repository ports.
// It mirrors the MongoDB repositories closely enough for service and router
// tests: record ids are ObjectID hex strings, emails are unique, reads
// populate lead references and lists are newest first.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

// Store holds all collections behind one lock.
type Store struct {
	mu        sync.Mutex
	users     map[string]domain.User
	customers map[string]domain.Customer
	leads     map[string]domain.Lead
	seq       time.Duration

	// FailDeleteLeads makes the next cascade fail after verifying the customer.
	FailDeleteLeads error
}

func New() *Store {
	return &Store{
		users:     make(map[string]domain.User),
		customers: make(map[string]domain.Customer),
		leads:     make(map[string]domain.Lead),
	}
}

func (s *Store) Users() *Users         { return &Users{s} }
func (s *Store) Customers() *Customers { return &Customers{s} }
func (s *Store) Leads() *Leads         { return &Leads{s} }

// CountLeads returns the number of leads referencing customerID, or every
// lead when customerID is empty.
func (s *Store) CountLeads(customerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.leads {
		if customerID == "" || l.Customer.ID == customerID {
			n++
		}
	}
	return n
}

func (s *Store) CountCustomers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

// stamp returns a strictly increasing timestamp so newest-first ordering is
// deterministic even when callers pass identical times.
func (s *Store) stamp(t time.Time) time.Time {
	s.seq += time.Millisecond
	if t.IsZero() {
		t = time.Unix(0, 0).UTC()
	}
	return t.Add(s.seq)
}

// ── Users ─────────────────────────────────────────────────────────────────────

type Users struct{ s *Store }

var _ ports.UserRepository = (*Users)(nil)

func (r *Users) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, domain.Conflict("User with this email already exists.")
		}
	}
	c := *u
	c.ID = primitive.NewObjectID().Hex()
	r.s.users[c.ID] = c
	return &c, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *Users) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *Users) ListByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.User, 0)
	for _, u := range r.s.users {
		if u.Role == role {
			c := u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── Customers ─────────────────────────────────────────────────────────────────

type Customers struct{ s *Store }

var _ ports.CustomerRepository = (*Customers)(nil)

func (r *Customers) Create(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(c.Email, "") {
		return nil, domain.Conflict("A customer with this email already exists.")
	}
	cp := *c
	cp.ID = primitive.NewObjectID().Hex()
	cp.CreatedAt = r.s.stamp(cp.CreatedAt)
	r.s.customers[cp.ID] = cp
	return &cp, nil
}

func (r *Customers) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return &c, nil
}

func (r *Customers) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.Email == email {
			cp := c
			return &cp, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *Customers) List(_ context.Context) ([]*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		cp := c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Customers) Update(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.customers[c.ID]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	if r.emailTaken(c.Email, c.ID) {
		return nil, domain.Conflict("Another customer with this email already exists.")
	}
	existing.Name, existing.Email, existing.Phone, existing.Company = c.Name, c.Email, c.Phone, c.Company
	r.s.customers[c.ID] = existing

	for id, l := range r.s.leads {
		if l.Customer.ID == c.ID {
			l.Customer.Name = existing.Name
			r.s.leads[id] = l
		}
	}
	return &existing, nil
}

func (r *Customers) DeleteCascade(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[id]; !ok {
		return 0, domain.ErrCustomerNotFound
	}
	if err := r.s.FailDeleteLeads; err != nil {
		r.s.FailDeleteLeads = nil
		return 0, domain.Persistence("delete customer leads", err)
	}

	var removed int64
	for lid, l := range r.s.leads {
		if l.Customer.ID == id {
			delete(r.s.leads, lid)
			removed++
		}
	}
	delete(r.s.customers, id)
	return removed, nil
}

func (r *Customers) emailTaken(email, selfID string) bool {
	for _, c := range r.s.customers {
		if c.Email == email && c.ID != selfID {
			return true
		}
	}
	return false
}

// ── Leads ─────────────────────────────────────────────────────────────────────

type Leads struct{ s *Store }

var _ ports.LeadRepository = (*Leads)(nil)

func (r *Leads) Create(_ context.Context, l *domain.Lead) (*domain.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *l
	cp.ID = primitive.NewObjectID().Hex()
	cp.CreatedAt = r.s.stamp(cp.CreatedAt)
	r.s.leads[cp.ID] = cp
	return r.populate(cp), nil
}

func (r *Leads) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	return r.populate(l), nil
}

func (r *Leads) List(_ context.Context, f ports.LeadFilter) ([]*domain.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Lead, 0)
	for _, l := range r.s.leads {
		if matches(l, f) {
			out = append(out, r.populate(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Leads) Update(_ context.Context, l *domain.Lead) (*domain.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.leads[l.ID]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	existing.Title, existing.Description, existing.Value = l.Title, l.Description, l.Value
	existing.Status, existing.Customer, existing.AssignedTo = l.Status, l.Customer, l.AssignedTo
	r.s.leads[l.ID] = existing
	return r.populate(existing), nil
}

func (r *Leads) UpdateStatus(_ context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	existing.Status = status
	r.s.leads[id] = existing
	return r.populate(existing), nil
}

func (r *Leads) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.leads[id]; !ok {
		return domain.ErrLeadNotFound
	}
	delete(r.s.leads, id)
	return nil
}

func (r *Leads) Stats(_ context.Context, f ports.LeadFilter) (*domain.LeadStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := domain.NewLeadStats()
	for _, l := range r.s.leads {
		if !matches(l, f) {
			continue
		}
		stats.Total++
		stats.TotalValue += l.Value
		stats.ByStatus[l.Status]++
	}
	return stats, nil
}

// populate fills reference names from the current customer and user records.
func (r *Leads) populate(l domain.Lead) *domain.Lead {
	if c, ok := r.s.customers[l.Customer.ID]; ok {
		l.Customer.Name = c.Name
	}
	if u, ok := r.s.users[l.AssignedTo.ID]; ok {
		l.AssignedTo.Name = u.Name
	}
	return &l
}

func matches(l domain.Lead, f ports.LeadFilter) bool {
	if f.AssignedTo != "" && l.AssignedTo.ID != f.AssignedTo {
		return false
	}
	if f.CustomerID != "" && l.Customer.ID != f.CustomerID {
		return false
	}
	return true
}
