package domain

import (
	"testing"
	"time"
)

func TestMergeUnionsProfileKeys(t *testing.T) {
	now := time.Now()

	existing := NewLead("a@example.com", now)
	existing.Profile["industry"] = "retail"

	incoming := NewLead("a@example.com", now)
	incoming.Profile["website"] = "https://shop.example.com"

	merged := Merge(existing, incoming, now)

	if merged.Profile["industry"] != "retail" {
		t.Error("existing profile.industry lost in merge")
	}
	if merged.Profile["website"] != "https://shop.example.com" {
		t.Error("incoming profile.website missing after merge")
	}
}

func TestMergeCompanyChangeRetainsAlias(t *testing.T) {
	now := time.Now()

	existing := NewLead("a@example.com", now)
	existing.Company = "Acme BV"

	incoming := NewLead("a@example.com", now)
	incoming.Company = "Acme Group"

	merged := Merge(existing, incoming, now)

	if merged.Company != "Acme Group" {
		t.Fatalf("company = %q, want Acme Group", merged.Company)
	}
	if len(merged.Aliases) != 1 || merged.Aliases[0] != "Acme BV" {
		t.Fatalf("aliases = %v, want [Acme BV]", merged.Aliases)
	}

	// Re-merging the same company does not duplicate the alias.
	again := Merge(merged, incoming, now)
	if len(again.Aliases) != 1 {
		t.Fatalf("aliases after re-merge = %v", again.Aliases)
	}
}

func TestMergeCampaignsKeyWise(t *testing.T) {
	now := time.Now()

	existing := NewLead("a@example.com", now)
	existing.EnsureCampaign("q1-launch", now).Status = StatusSent

	incoming := NewLead("a@example.com", now)
	incoming.EnsureCampaign("q2-retail", now).Status = StatusWarm

	merged := Merge(existing, incoming, now)

	if merged.Campaigns["q1-launch"] == nil || merged.Campaigns["q1-launch"].Status != StatusSent {
		t.Error("untouched campaign q1-launch lost or altered")
	}
	if merged.Campaigns["q2-retail"] == nil || merged.Campaigns["q2-retail"].Status != StatusWarm {
		t.Error("incoming campaign q2-retail missing")
	}
}

func TestMergePreservesScoresWhenNotRecomputed(t *testing.T) {
	now := time.Now()

	existing := NewLead("a@example.com", now)
	existing.FitScore = 45
	existing.IntentScore = 25

	incoming := NewLead("a@example.com", now)

	merged := Merge(existing, incoming, now)
	if merged.FitScore != 45 || merged.IntentScore != 25 {
		t.Fatalf("scores = %v/%v, want 45/25", merged.FitScore, merged.IntentScore)
	}

	incoming.FitScore = 80
	merged = Merge(existing, incoming, now)
	if merged.FitScore != 80 {
		t.Fatalf("recomputed fit = %v, want 80", merged.FitScore)
	}
	if merged.IntentScore != 25 {
		t.Fatalf("intent = %v, want 25", merged.IntentScore)
	}
}

func TestMergeKeepsLongerHistory(t *testing.T) {
	now := time.Now()

	existing := NewLead("a@example.com", now)
	existing.AppendHistory(now, ActionUpsert, StatusNew, "")

	incoming := cloneLead(existing)
	incoming.AppendHistory(now, ActionStatusUpdate, StatusWarm, "reply")

	merged := Merge(existing, incoming, now)
	if len(merged.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(merged.History))
	}
	if merged.History[1].Action != ActionStatusUpdate {
		t.Errorf("last history action = %q", merged.History[1].Action)
	}
}

func TestMergeDoesNotMutateArguments(t *testing.T) {
	now := time.Now()

	existing := NewLead("a@example.com", now)
	existing.Profile["industry"] = "retail"
	incoming := NewLead("a@example.com", now)
	incoming.Profile["website"] = "x"

	_ = Merge(existing, incoming, now)

	if _, ok := existing.Profile["website"]; ok {
		t.Error("merge mutated the existing record")
	}
	if _, ok := incoming.Profile["industry"]; ok {
		t.Error("merge mutated the incoming record")
	}
}

func TestEnsureCampaignDefaults(t *testing.T) {
	now := time.Now()
	lead := NewLead("a@example.com", now)

	campaign := lead.EnsureCampaign("demo-001", now)
	if campaign.Status != StatusNew {
		t.Fatalf("new campaign status = %q, want NEW", campaign.Status)
	}

	campaign.Status = StatusSent
	if again := lead.EnsureCampaign("demo-001", now); again.Status != StatusSent {
		t.Fatal("EnsureCampaign replaced an existing campaign")
	}
}

func TestCreditedSignals(t *testing.T) {
	now := time.Now()
	lead := NewLead("a@example.com", now)

	lead.MarkCredited("platform")
	lead.MarkCredited("platform")

	if !lead.HasCredited("platform") {
		t.Fatal("credited key not found")
	}
	if len(lead.CreditedSignals) != 1 {
		t.Fatalf("credited keys duplicated: %v", lead.CreditedSignals)
	}
}
