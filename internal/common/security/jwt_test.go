package security

import (
	"context"
	"testing"
	"time"
)

func TestIssueDraftTokenRoundTrip(t *testing.T) {
	InitDraftTokens([]byte("test-secret"), time.Hour)

	tokenString, err := IssueDraftToken("session-1")
	if err != nil {
		t.Fatalf("IssueDraftToken: %v", err)
	}
	token, err := TokenAuth.Decode(tokenString)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	id, err := DraftIDFromClaims(claims)
	if err != nil || id != "session-1" {
		t.Fatalf("draft id = %q, %v", id, err)
	}
}

func TestDraftIDFromClaimsMissing(t *testing.T) {
	if _, err := DraftIDFromClaims(map[string]interface{}{"draft_id": 7}); err == nil {
		t.Fatal("expected error for non-string claim")
	}
	if _, err := DraftIDFromClaims(map[string]interface{}{}); err == nil {
		t.Fatal("expected error for missing claim")
	}
}
