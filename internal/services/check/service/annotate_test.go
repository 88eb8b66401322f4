package service

import (
	"strings"
	"testing"

	"fraudshield/internal/adapters/riskapi"
	"fraudshield/internal/core/risk"
)

func TestMergeTags(t *testing.T) {
	cases := []struct {
		name     string
		existing string
		tier     risk.Tier
		reported bool
		want     string
	}{
		{"empty", "", risk.TierSafe, false, "FraudShieldBD, fsbd:safe"},
		{"keeps merchant tags", "vip, wholesale", risk.TierHigh, false, "vip, wholesale, FraudShieldBD, fsbd:high"},
		{"replaces stale tier", "FraudShieldBD, fsbd:high, vip", risk.TierSafe, false, "vip, FraudShieldBD, fsbd:safe"},
		{"adds reported", "vip", risk.TierMedium, true, "vip, FraudShieldBD, fsbd:medium, fsbd:reported"},
		{"drops stale reported", "fsbd:reported, vip", risk.TierSafe, false, "vip, FraudShieldBD, fsbd:safe"},
		{"keeps current reported", "fsbd:reported, vip", risk.TierSafe, true, "fsbd:reported, vip, FraudShieldBD, fsbd:safe"},
		{"dedupes", "vip, vip", risk.TierSafe, false, "vip, FraudShieldBD, fsbd:safe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mergeTags(tc.existing, tc.tier, tc.reported); got != tc.want {
				t.Fatalf("mergeTags(%q) = %q, want %q", tc.existing, got, tc.want)
			}
		})
	}
}

func TestAppendNote(t *testing.T) {
	if got := appendNote("", "verdict"); got != "verdict" {
		t.Fatalf("empty note: %q", got)
	}
	got := appendNote("customer called", "verdict")
	if got != "customer called\nverdict" {
		t.Fatalf("append: %q", got)
	}
}

func TestNoteText(t *testing.T) {
	note := noteText(risk.TierHigh, riskapi.Result{
		TotalParcels:   10,
		SuccessParcels: 3,
		SuccessRatio:   30,
		Couriers:       []riskapi.CourierStat{{Name: "Pathao", Total: 10, Success: 3, SuccessRatio: 30}},
		Reports:        []riskapi.Report{{Courier: "pathao"}},
	})
	if !strings.Contains(note, "High Risk") || !strings.Contains(note, "3/10") || !strings.Contains(note, "30%") {
		t.Fatalf("note = %q", note)
	}
	if !strings.Contains(note, "1 fraud report") || !strings.Contains(note, "- Pathao: 3/10") {
		t.Fatalf("note breakdown = %q", note)
	}

	empty := noteText(risk.TierUnknown, riskapi.Result{})
	if !strings.Contains(empty, "no courier history") {
		t.Fatalf("unknown note = %q", empty)
	}
}

func TestVerdictFieldsCompleteness(t *testing.T) {
	res := riskapi.Result{
		TotalParcels:   10,
		SuccessParcels: 7,
		CancelParcels:  3,
		SuccessRatio:   70,
		Couriers:       []riskapi.CourierStat{{Name: "pathao", Total: 10, Success: 7, Cancel: 3}},
		Reports:        []riskapi.Report{{Courier: "pathao"}},
	}
	fields := verdictFields(risk.TierSafe, res)

	for _, key := range []string{
		fieldChecked, fieldRiskLevel, fieldRiskLabel, fieldTotalParcel,
		fieldSuccessParcel, fieldCancelParcel, fieldSuccessRatio,
		fieldReportCount, fieldCouriers, fieldCheckedAt,
	} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing field %q", key)
		}
	}
	if fields[fieldReportCount] != "1" {
		t.Fatalf("report_count = %q", fields[fieldReportCount])
	}
	if !strings.Contains(fields[fieldCouriers], "pathao") {
		t.Fatalf("couriers = %q", fields[fieldCouriers])
	}
}
