// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package validation

import (
	"strings"
	"testing"
)

type testRequest struct {
	West      float64 `validate:"gte=-180,lte=180"`
	South     float64 `validate:"latitude"`
	ValidFrom string  `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit     int     `validate:"omitempty,min=1,max=1000"`
	Cursor    string  `validate:"omitempty,base64url"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	req := testRequest{
		West:      4.8,
		South:     52.3,
		ValidFrom: "1900-01-01T00:00:00Z",
		Limit:     100,
	}
	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("expected valid, got %v", verr)
	}
}

func TestValidateStructSingleFailure(t *testing.T) {
	t.Parallel()

	req := testRequest{South: 95}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 1 {
		t.Fatalf("got %d errors, want 1", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "latitude") {
		t.Errorf("Message = %q, want latitude hint", apiErr.Message)
	}
	if apiErr.Details["field"] != "South" {
		t.Errorf("Details.field = %v", apiErr.Details["field"])
	}
}

func TestValidateStructMultipleFailures(t *testing.T) {
	t.Parallel()

	req := testRequest{
		West:  300,
		South: -95,
		Limit: 5000,
	}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) != 3 {
		t.Fatalf("got %d errors, want 3", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Errorf("Details.fields = %v", apiErr.Details["fields"])
	}
}

func TestValidateStructDatetimeAndCursor(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&testRequest{ValidFrom: "not-a-date"})
	if verr == nil || !strings.Contains(verr.Error(), "RFC3339") {
		t.Errorf("expected datetime error, got %v", verr)
	}

	verr = ValidateStruct(&testRequest{Cursor: "!!!"})
	if verr == nil || !strings.Contains(verr.Error(), "base64url") {
		t.Errorf("expected cursor error, got %v", verr)
	}
}
