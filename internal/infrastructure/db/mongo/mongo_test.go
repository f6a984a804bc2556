package mongo

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/minicrm/crm-api/internal/core/domain"
	"github.com/minicrm/crm-api/internal/core/ports"
)

func TestLeadMatch(t *testing.T) {
	user := primitive.NewObjectID()
	customer := primitive.NewObjectID()

	match, ok := leadMatch(ports.LeadFilter{AssignedTo: user.Hex(), CustomerID: customer.Hex()})
	if !ok {
		t.Fatalf("expected valid filter")
	}
	if match["assignedTo"] != user || match["customer"] != customer {
		t.Fatalf("unexpected match: %v", match)
	}

	if match, ok := leadMatch(ports.LeadFilter{}); !ok || len(match) != 0 {
		t.Fatalf("empty filter should match everything, got %v", match)
	}

	if _, ok := leadMatch(ports.LeadFilter{AssignedTo: "admin_session_abc"}); ok {
		t.Fatalf("non-record id must not produce a filter")
	}
}

func TestOptionalRef(t *testing.T) {
	if optionalRef("") != nil || optionalRef("admin_session_abc") != nil {
		t.Fatalf("expected nil for non-record ids")
	}
	oid := primitive.NewObjectID()
	if got := optionalRef(oid.Hex()); got == nil || *got != oid {
		t.Fatalf("expected %s, got %v", oid.Hex(), got)
	}
	if refHex(nil) != "" || refHex(&oid) != oid.Hex() {
		t.Fatalf("refHex mismatch")
	}
}

func TestIsTransactionUnsupported(t *testing.T) {
	standalone := mongo.CommandError{Code: codeIllegalOperation, Message: "Transaction numbers are only allowed on a replica set member or mongos"}
	if !isTransactionUnsupported(fmt.Errorf("delete: %w", standalone)) {
		t.Fatalf("expected code 20 to be detected")
	}
	if isTransactionUnsupported(mongo.CommandError{Code: 112, Message: "WriteConflict"}) {
		t.Fatalf("unexpected match for write conflict")
	}
	if isTransactionUnsupported(errors.New("network")) {
		t.Fatalf("unexpected match for plain error")
	}
}

func TestPassthrough(t *testing.T) {
	if err := passthrough("op", domain.ErrCustomerNotFound); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("domain errors must pass through, got %v", err)
	}
	if err := passthrough("op", errors.New("boom")); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("driver errors must become persistence errors, got %v", err)
	}
}
