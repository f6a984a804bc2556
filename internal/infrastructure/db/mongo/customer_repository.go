package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

type CustomerRepository struct {
	client *mongo.Client
	col    *mongo.Collection
	leads  *mongo.Collection
}

var _ ports.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{
		client: db.Client(),
		col:    db.Collection(collectionCustomers),
		leads:  db.Collection(collectionLeads),
	}
}

type customerDoc struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Name      string              `bson:"name"`
	Email     string              `bson:"email"`
	Phone     string              `bson:"phone,omitempty"`
	Company   string              `bson:"company,omitempty"`
	CreatedBy *primitive.ObjectID `bson:"createdBy,omitempty"`
	CreatedAt time.Time           `bson:"createdAt"`
}

func (d customerDoc) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Company:   d.Company,
		CreatedBy: refHex(d.CreatedBy),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := customerDoc{
		ID:        primitive.NewObjectID(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		CreatedBy: optionalRef(c.CreatedBy),
		CreatedAt: c.CreatedAt.UTC(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Conflict("A customer with this email already exists.")
		}
		return nil, domain.Persistence("insert customer", fmt.Errorf("insert customer: %w", err))
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *CustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, domain.Persistence("list customers", fmt.Errorf("find customers: %w", err))
	}
	defer cur.Close(ctx)

	var docs []customerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Persistence("list customers", fmt.Errorf("decode customers: %w", err))
	}

	out := make([]*domain.Customer, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	oid, ok := objectID(c.ID)
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"name": c.Name, "email": c.Email}
	unset := bson.M{}
	for field, v := range map[string]string{"phone": c.Phone, "company": c.Company} {
		if v == "" {
			unset[field] = ""
		} else {
			set[field] = v
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc customerDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, domain.ErrCustomerNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, domain.Conflict("Another customer with this email already exists.")
	case err != nil:
		return nil, domain.Persistence("update customer", fmt.Errorf("update customer: %w", err))
	}
	return doc.toDomain(), nil
}

// DeleteCascade removes the customer and its leads in one transaction. On
// deployments without transaction support it falls back to ordered deletes:
// the leads go first so a failure never leaves orphans behind.
func (r *CustomerRepository) DeleteCascade(ctx context.Context, id string) (int64, error) {
	oid, ok := objectID(id)
	if !ok {
		return 0, domain.ErrCustomerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	removed, err := r.deleteInTransaction(ctx, oid)
	if err == nil {
		return removed, nil
	}
	if !isTransactionUnsupported(err) {
		return 0, passthrough("delete customer", err)
	}

	removed, err = r.deleteOrdered(ctx, oid)
	if err != nil {
		return 0, passthrough("delete customer", err)
	}
	return removed, nil
}

func (r *CustomerRepository) deleteInTransaction(ctx context.Context, oid primitive.ObjectID) (int64, error) {
	sess, err := r.client.StartSession()
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.deleteOrdered(sc, oid)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (r *CustomerRepository) deleteOrdered(ctx context.Context, oid primitive.ObjectID) (int64, error) {
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrCustomerNotFound
		}
		return 0, fmt.Errorf("find customer: %w", err)
	}

	leads, err := r.leads.DeleteMany(ctx, bson.M{"customer": oid})
	if err != nil {
		return 0, fmt.Errorf("delete customer leads: %w", err)
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("delete customer: %w", err)
	}
	if res.DeletedCount == 0 {
		return 0, domain.ErrCustomerNotFound
	}
	return leads.DeletedCount, nil
}

func (r *CustomerRepository) findOne(ctx context.Context, filter bson.M) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc customerDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, domain.Persistence("find customer", fmt.Errorf("find customer: %w", err))
	}
	return doc.toDomain(), nil
}
