package transport

import (
	"encoding/json"
	"testing"
)

func TestUpsertRequestAliasNormalization(t *testing.T) {
	body := `{"email":"a@b.com","companyName":"Acme","campaignId":"q1"}`

	var req UpsertLeadRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatal(err)
	}

	input := req.ToInput()
	if input.Company != "Acme" {
		t.Errorf("company = %q, want Acme", input.Company)
	}
	if input.CampaignID != "q1" {
		t.Errorf("campaignId = %q, want q1", input.CampaignID)
	}
}

func TestUpsertRequestPrefersCanonicalFields(t *testing.T) {
	body := `{"email":"a@b.com","company_name":"Canonical","companyName":"Alias","campaign_id":"snake","campaignId":"camel"}`

	var req UpsertLeadRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatal(err)
	}

	input := req.ToInput()
	if input.Company != "Canonical" {
		t.Errorf("company = %q, canonical field must win", input.Company)
	}
	if input.CampaignID != "snake" {
		t.Errorf("campaignId = %q, canonical field must win", input.CampaignID)
	}
}

func TestUpdateStatusRequestAliases(t *testing.T) {
	body := `{"email":"a@b.com","campaignId":"q1","reply_text":"not interested"}`

	var req UpdateStatusRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatal(err)
	}

	input := req.ToInput()
	if input.CampaignID != "q1" || input.ReplyText != "not interested" {
		t.Errorf("normalized input = %+v", input)
	}
}
