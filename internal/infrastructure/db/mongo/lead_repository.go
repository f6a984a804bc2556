package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

// LeadRepository implements ports.LeadRepository. Reads join the customer
// and assignee names with $lookup.
type LeadRepository struct {
	col *mongo.Collection
}

var _ ports.LeadRepository = (*LeadRepository)(nil)

func NewLeadRepository(db *mongo.Database) *LeadRepository {
	return &LeadRepository{col: db.Collection(collectionLeads)}
}

type leadDoc struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Title       string              `bson:"title"`
	Description string              `bson:"description,omitempty"`
	Value       float64             `bson:"value"`
	Status      string              `bson:"status"`
	Customer    primitive.ObjectID  `bson:"customer"`
	AssignedTo  primitive.ObjectID  `bson:"assignedTo"`
	CreatedBy   *primitive.ObjectID `bson:"createdBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
}

type nameOnly struct {
	Name string `bson:"name"`
}

// leadView is a lead document after the $lookup stages.
type leadView struct {
	leadDoc     `bson:",inline"`
	CustomerRef []nameOnly `bson:"customerRef"`
	AssigneeRef []nameOnly `bson:"assigneeRef"`
}

func (v leadView) toDomain() *domain.Lead {
	l := &domain.Lead{
		ID:          v.ID.Hex(),
		Title:       v.Title,
		Description: v.Description,
		Value:       v.Value,
		Status:      domain.LeadStatus(v.Status),
		Customer:    domain.Ref{ID: v.Customer.Hex()},
		AssignedTo:  domain.Ref{ID: v.AssignedTo.Hex()},
		CreatedBy:   refHex(v.CreatedBy),
		CreatedAt:   v.CreatedAt.UTC(),
	}
	if len(v.CustomerRef) > 0 {
		l.Customer.Name = v.CustomerRef[0].Name
	}
	if len(v.AssigneeRef) > 0 {
		l.AssignedTo.Name = v.AssigneeRef[0].Name
	}
	return l
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	customer, ok := objectID(lead.Customer.ID)
	if !ok {
		return nil, domain.Validation("Customer does not exist.")
	}
	assignee, ok := objectID(lead.AssignedTo.ID)
	if !ok {
		return nil, domain.Validation("Assigned user does not exist.")
	}

	doc := leadDoc{
		ID:          primitive.NewObjectID(),
		Title:       lead.Title,
		Description: lead.Description,
		Value:       lead.Value,
		Status:      string(lead.Status),
		Customer:    customer,
		AssignedTo:  assignee,
		CreatedBy:   optionalRef(lead.CreatedBy),
		CreatedAt:   lead.CreatedAt.UTC(),
	}

	insertCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if _, err := r.col.InsertOne(insertCtx, doc); err != nil {
		return nil, domain.Persistence("insert lead", fmt.Errorf("insert lead: %w", err))
	}
	return r.FindByID(ctx, doc.ID.Hex())
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	leads, err := r.query(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, domain.ErrLeadNotFound
	}
	return leads[0], nil
}

func (r *LeadRepository) List(ctx context.Context, filter ports.LeadFilter) ([]*domain.Lead, error) {
	match, ok := leadMatch(filter)
	if !ok {
		return []*domain.Lead{}, nil
	}
	return r.query(ctx, match)
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	customer, ok := objectID(lead.Customer.ID)
	if !ok {
		return nil, domain.Validation("Customer does not exist.")
	}
	assignee, ok := objectID(lead.AssignedTo.ID)
	if !ok {
		return nil, domain.Validation("Assigned user does not exist.")
	}

	set := bson.M{
		"title":      lead.Title,
		"value":      lead.Value,
		"status":     string(lead.Status),
		"customer":   customer,
		"assignedTo": assignee,
	}
	update := bson.M{"$set": set}
	if lead.Description == "" {
		update["$unset"] = bson.M{"description": ""}
	} else {
		set["description"] = lead.Description
	}

	return r.updateOne(ctx, lead.ID, update)
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status domain.LeadStatus) (*domain.Lead, error) {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"status": string(status)}})
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrLeadNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return domain.Persistence("delete lead", fmt.Errorf("delete lead: %w", err))
	}
	if res.DeletedCount == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

// Stats groups matching leads by status in the database.
func (r *LeadRepository) Stats(ctx context.Context, filter ports.LeadFilter) (*domain.LeadStats, error) {
	stats := domain.NewLeadStats()
	match, ok := leadMatch(filter)
	if !ok {
		return stats, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"value": bson.M{"$sum": "$value"},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, domain.Persistence("lead stats", fmt.Errorf("aggregate lead stats: %w", err))
	}
	defer cur.Close(ctx)

	var groups []struct {
		Status string  `bson:"_id"`
		Count  int64   `bson:"count"`
		Value  float64 `bson:"value"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, domain.Persistence("lead stats", fmt.Errorf("decode lead stats: %w", err))
	}

	for _, g := range groups {
		stats.Total += g.Count
		stats.TotalValue += g.Value
		stats.ByStatus[domain.LeadStatus(g.Status)] += g.Count
	}
	return stats, nil
}

func (r *LeadRepository) updateOne(ctx context.Context, id string, update bson.M) (*domain.Lead, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrLeadNotFound
	}

	updateCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(updateCtx, bson.M{"_id": oid}, update)
	if err != nil {
		return nil, domain.Persistence("update lead", fmt.Errorf("update lead: %w", err))
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrLeadNotFound
	}
	return r.FindByID(ctx, id)
}

// query runs the populated read pipeline, newest first.
func (r *LeadRepository) query(ctx context.Context, match bson.M) ([]*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		lookupName(collectionCustomers, "customer", "customerRef"),
		lookupName(collectionUsers, "assignedTo", "assigneeRef"),
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, domain.Persistence("list leads", fmt.Errorf("aggregate leads: %w", err))
	}
	defer cur.Close(ctx)

	var views []leadView
	if err := cur.All(ctx, &views); err != nil {
		return nil, domain.Persistence("list leads", fmt.Errorf("decode leads: %w", err))
	}

	out := make([]*domain.Lead, 0, len(views))
	for _, v := range views {
		out = append(out, v.toDomain())
	}
	return out, nil
}

// lookupName joins the referenced document into as. Only its name is decoded.
func lookupName(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from":         from,
		"localField":   localField,
		"foreignField": "_id",
		"as":           as,
	}}}
}

// leadMatch builds the $match document for filter. ok is false when a filter
// id cannot match any document.
func leadMatch(filter ports.LeadFilter) (bson.M, bool) {
	match := bson.M{}
	if filter.AssignedTo != "" {
		oid, ok := objectID(filter.AssignedTo)
		if !ok {
			return nil, false
		}
		match["assignedTo"] = oid
	}
	if filter.CustomerID != "" {
		oid, ok := objectID(filter.CustomerID)
		if !ok {
			return nil, false
		}
		match["customer"] = oid
	}
	return match, true
}
