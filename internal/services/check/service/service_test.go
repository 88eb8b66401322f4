package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"fraudshield/internal/adapters/riskapi"
	"fraudshield/internal/adapters/storefront"
	"fraudshield/internal/core/phone"
	perr "fraudshield/internal/platform/errors"
	checkdom "fraudshield/internal/services/check/domain"
	shopsdom "fraudshield/internal/services/shops/domain"
)

type fakeRisk struct {
	mu          sync.Mutex
	res         riskapi.Result
	err         error
	calls       int
	invalidated []phone.Number
}

func (f *fakeRisk) Check(_ context.Context, num phone.Number) (riskapi.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return riskapi.Result{}, f.err
	}
	res := f.res
	res.Phone = num
	return res, nil
}

func (f *fakeRisk) Invalidate(num phone.Number) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, num)
}

func (f *fakeRisk) TestConnection(context.Context) error { return nil }
func (f *fakeRisk) FlushCache()                          {}
func (f *fakeRisk) CacheSize() int                       { return 0 }

type fakePlatform struct {
	mu        sync.Mutex
	order     storefront.Order
	orderErr  error
	fields    []storefront.Field
	setFields map[string]string
	tags      *string
	note      *string
	getOrders int
}

func newFakePlatform(order storefront.Order) *fakePlatform {
	return &fakePlatform{order: order, setFields: map[string]string{}}
}

func (f *fakePlatform) GetOrder(_ context.Context, _ storefront.Session, _ int64) (storefront.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getOrders++
	return f.order, f.orderErr
}

func (f *fakePlatform) SetTags(_ context.Context, _ storefront.Session, _ int64, tags string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = &tags
	return nil
}

func (f *fakePlatform) SetNote(_ context.Context, _ storefront.Session, _ int64, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note = &note
	return nil
}

func (f *fakePlatform) GetFields(_ context.Context, _ storefront.Session, _ int64) ([]storefront.Field, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields, nil
}

func (f *fakePlatform) SetField(_ context.Context, _ storefront.Session, _ int64, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setFields[key] = value
	return nil
}

type fakeShops struct{ shop shopsdom.Shop }

func (f fakeShops) Get(_ context.Context, s string) (shopsdom.Shop, error) {
	if s != f.shop.Domain {
		return shopsdom.Shop{}, perr.NotFoundf("shop %s not found", s)
	}
	return f.shop, nil
}

func enabledShop() shopsdom.Shop {
	return shopsdom.Shop{
		Domain:      "demo.example.com",
		AccessToken: "tok",
		AutoCheck:   true,
		CODOnly:     true,
		Tagging:     true,
		AddNote:     true,
	}
}

func codOrder() storefront.Order {
	return storefront.Order{
		ID:       42,
		Name:     "#1042",
		Phone:    "+8801712345678",
		Gateways: []string{"Cash on Delivery (COD)"},
	}
}

func safeHistory() riskapi.Result {
	return riskapi.Result{
		TotalParcels:   10,
		SuccessParcels: 9,
		CancelParcels:  1,
		SuccessRatio:   90,
		CheckedAt:      time.Now(),
	}
}

func newPipeline(shop shopsdom.Shop, order storefront.Order, res riskapi.Result) (*Service, *fakeRisk, *fakePlatform) {
	risk := &fakeRisk{res: res}
	platform := newFakePlatform(order)
	svc := New(risk, platform, fakeShops{shop: shop}, Config{})
	return svc, risk, platform
}

func TestCheckAnnotatesCODOrder(t *testing.T) {
	svc, _, platform := newPipeline(enabledShop(), codOrder(), safeHistory())

	res, err := svc.Check(context.Background(), "demo.example.com", 42, checkdom.TriggerCreated)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Outcome != checkdom.OutcomeAnnotated {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if res.Phone != "01712345678" {
		t.Fatalf("phone = %q", res.Phone)
	}

	if platform.setFields[fieldChecked] != "yes" {
		t.Fatalf("checked field = %q", platform.setFields[fieldChecked])
	}
	if platform.setFields[fieldRiskLevel] != "safe" {
		t.Fatalf("risk_level = %q", platform.setFields[fieldRiskLevel])
	}
	if platform.setFields[fieldTotalParcel] != "10" || platform.setFields[fieldSuccessRatio] != "90.00" {
		t.Fatalf("summary fields = %v", platform.setFields)
	}
	if platform.tags == nil || !strings.Contains(*platform.tags, tagApp) || !strings.Contains(*platform.tags, "fsbd:safe") {
		t.Fatalf("tags = %v", platform.tags)
	}
	if platform.note == nil || !strings.Contains(*platform.note, "Safe") {
		t.Fatalf("note = %v", platform.note)
	}
}

func TestCheckSkipsWhenAutoCheckDisabled(t *testing.T) {
	shop := enabledShop()
	shop.AutoCheck = false
	svc, risk, platform := newPipeline(shop, codOrder(), safeHistory())

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerCreated)
	if err != nil || res.Outcome != checkdom.OutcomeSkippedDisabled {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
	if platform.getOrders != 0 || risk.calls != 0 {
		t.Fatalf("disabled shop still did work: orders=%d risk=%d", platform.getOrders, risk.calls)
	}
}

func TestCheckSkipsUninstalledShop(t *testing.T) {
	shop := enabledShop()
	gone := time.Now()
	shop.UninstalledAt = &gone
	svc, _, platform := newPipeline(shop, codOrder(), safeHistory())

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerManual)
	if err != nil || res.Outcome != checkdom.OutcomeSkippedDisabled {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
	if platform.getOrders != 0 {
		t.Fatalf("uninstalled shop fetched an order")
	}
}

func TestCheckSkipsPrepaidOrder(t *testing.T) {
	order := codOrder()
	order.Gateways = []string{"visa"}
	svc, risk, _ := newPipeline(enabledShop(), order, safeHistory())

	res, err := svc.Check(context.Background(), "demo.example.com", 42, checkdom.TriggerCreated)
	if err != nil || res.Outcome != checkdom.OutcomeSkippedNotCOD {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
	if risk.calls != 0 {
		t.Fatalf("prepaid order reached the risk service")
	}
}

func TestCheckUsesShopThresholds(t *testing.T) {
	shop := enabledShop()
	shop.MediumThreshold = 92
	shop.SafeThreshold = 95
	svc, _, platform := newPipeline(shop, codOrder(), safeHistory()) // 90% ratio

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerCreated)
	if err != nil || res.Outcome != checkdom.OutcomeAnnotated {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
	if res.Tier.String() != "high" {
		t.Fatalf("tier = %v, want high under the shop's 92/95 cutoffs", res.Tier)
	}
	if platform.setFields[fieldRiskLevel] != "high" {
		t.Fatalf("risk_level = %q", platform.setFields[fieldRiskLevel])
	}
}

func TestCheckZeroThresholdsFallBackToDefaults(t *testing.T) {
	shop := enabledShop() // thresholds unset
	svc, _, _ := newPipeline(shop, codOrder(), safeHistory())

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerCreated)
	if err != nil || res.Tier.String() != "safe" {
		t.Fatalf("tier = %v, err = %v", res.Tier, err)
	}
}

func TestCheckAllowsPrepaidWhenCODOnlyOff(t *testing.T) {
	shop := enabledShop()
	shop.CODOnly = false
	order := codOrder()
	order.Gateways = []string{"visa"}
	svc, _, _ := newPipeline(shop, order, safeHistory())

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerCreated)
	if err != nil || res.Outcome != checkdom.OutcomeAnnotated {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
}

func TestCheckHonorsTaggingAndNoteFlags(t *testing.T) {
	shop := enabledShop()
	shop.Tagging = false
	shop.AddNote = false
	svc, _, platform := newPipeline(shop, codOrder(), safeHistory())

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerCreated)
	if err != nil || res.Outcome != checkdom.OutcomeAnnotated {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
	if platform.setFields[fieldChecked] != "yes" {
		t.Fatalf("field writes must not depend on the flags: %v", platform.setFields)
	}
	if platform.tags != nil {
		t.Fatalf("tagging disabled but tags written: %q", *platform.tags)
	}
	if platform.note != nil {
		t.Fatalf("notes disabled but note written: %q", *platform.note)
	}
}

func TestCheckSkipsOrderWithoutValidPhone(t *testing.T) {
	order := codOrder()
	order.Phone = "not a phone"
	svc, risk, _ := newPipeline(enabledShop(), order, safeHistory())

	res, err := svc.Check(context.Background(), "demo.example.com", 42, checkdom.TriggerCreated)
	if err != nil || res.Outcome != checkdom.OutcomeSkippedNoPhone {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
	if risk.calls != 0 {
		t.Fatalf("invalid phone reached the risk service")
	}
}

func TestCheckFallsBackToShippingPhone(t *testing.T) {
	order := codOrder()
	order.Phone = ""
	order.ShippingAddress = &storefront.Address{Phone: "০১৯১২৩৪৫৬৭৮"}
	svc, _, _ := newPipeline(enabledShop(), order, safeHistory())

	res, err := svc.Check(context.Background(), "demo.example.com", 42, checkdom.TriggerCreated)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Phone != "01912345678" {
		t.Fatalf("phone = %q", res.Phone)
	}
}

func TestManualCheckWithoutPhoneErrors(t *testing.T) {
	order := codOrder()
	order.Phone = ""
	svc, _, _ := newPipeline(enabledShop(), order, safeHistory())

	_, err := svc.Check(context.Background(), "demo.example.com", 42, checkdom.TriggerManual)
	if !perr.IsCode(err, perr.ErrorCodeInvalidPhone) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
}

func TestUpdatedOrderAlreadyChecked(t *testing.T) {
	shop := enabledShop()
	shop.CheckOnUpdate = true
	svc, risk, platform := newPipeline(shop, codOrder(), safeHistory())
	platform.fields = []storefront.Field{{Namespace: storefront.Namespace, Key: fieldChecked, Value: "yes"}}

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerUpdated)
	if err != nil || res.Outcome != checkdom.OutcomeAlreadyChecked {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
	if risk.calls != 0 {
		t.Fatalf("already-checked order hit the risk service")
	}
}

func TestUpdatedOrderAlreadyCheckedWinsOverOtherSkips(t *testing.T) {
	shop := enabledShop()
	shop.CheckOnUpdate = true
	order := codOrder()
	order.Phone = "not a phone"
	order.Gateways = []string{"visa"}
	svc, risk, platform := newPipeline(shop, order, safeHistory())
	platform.fields = []storefront.Field{{Namespace: storefront.Namespace, Key: fieldChecked, Value: "yes"}}

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerUpdated)
	if err != nil || res.Outcome != checkdom.OutcomeAlreadyChecked {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
	if risk.calls != 0 {
		t.Fatalf("already-checked order hit the risk service")
	}
}

func TestUpdatedOrderErrorStateCountsAsChecked(t *testing.T) {
	shop := enabledShop()
	shop.CheckOnUpdate = true
	svc, _, platform := newPipeline(shop, codOrder(), safeHistory())
	platform.fields = []storefront.Field{{Namespace: storefront.Namespace, Key: fieldChecked, Value: "error"}}

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerUpdated)
	if err != nil || res.Outcome != checkdom.OutcomeAlreadyChecked {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
}

func TestUpdatedGateRespectsSetting(t *testing.T) {
	shop := enabledShop() // CheckOnUpdate false
	svc, _, _ := newPipeline(shop, codOrder(), safeHistory())

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerUpdated)
	if err != nil || res.Outcome != checkdom.OutcomeSkippedDisabled {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, err)
	}
}

func TestRiskFailureIsRecordedOnOrder(t *testing.T) {
	svc, risk, platform := newPipeline(enabledShop(), codOrder(), safeHistory())
	risk.err = perr.New(perr.ErrorCodeRateLimited, "risk service daily limit reached")

	res, err := svc.Check(context.Background(), "demo.example.com", 42, checkdom.TriggerCreated)
	if !perr.IsCode(err, perr.ErrorCodeRateLimited) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
	if res.Outcome != checkdom.OutcomeErrorRecorded {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if platform.setFields[fieldChecked] != "error" {
		t.Fatalf("checked field = %q", platform.setFields[fieldChecked])
	}
	if platform.setFields[fieldError] == "" {
		t.Fatalf("error field empty")
	}
	if platform.tags != nil {
		t.Fatalf("failed check wrote tags: %q", *platform.tags)
	}
}

func TestManualCheckBustsCacheAndSkipsGates(t *testing.T) {
	shop := enabledShop()
	shop.AutoCheck = false
	order := codOrder()
	order.Gateways = []string{"visa"} // manual ignores the COD gate too
	svc, risk, _ := newPipeline(shop, order, safeHistory())

	res, err := svc.Check(context.Background(), shop.Domain, 42, checkdom.TriggerManual)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Outcome != checkdom.OutcomeAnnotated {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if len(risk.invalidated) != 1 || risk.invalidated[0] != "01712345678" {
		t.Fatalf("cache not busted: %v", risk.invalidated)
	}
}

func TestCheckUnknownShop(t *testing.T) {
	svc, _, _ := newPipeline(enabledShop(), codOrder(), safeHistory())
	_, err := svc.Check(context.Background(), "ghost.example.com", 42, checkdom.TriggerCreated)
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
}

func TestHighRiskClassification(t *testing.T) {
	res := safeHistory()
	res.SuccessParcels = 3
	res.CancelParcels = 7
	res.SuccessRatio = 30
	svc, _, platform := newPipeline(enabledShop(), codOrder(), res)

	out, err := svc.Check(context.Background(), "demo.example.com", 42, checkdom.TriggerCreated)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if out.Tier.String() != "high" {
		t.Fatalf("tier = %v", out.Tier)
	}
	if !strings.Contains(*platform.tags, "fsbd:high") {
		t.Fatalf("tags = %q", *platform.tags)
	}
}

func TestNoHistoryIsUnknownTier(t *testing.T) {
	svc, _, platform := newPipeline(enabledShop(), codOrder(), riskapi.Result{CheckedAt: time.Now()})

	out, err := svc.Check(context.Background(), "demo.example.com", 42, checkdom.TriggerCreated)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if out.Tier.String() != "unknown" {
		t.Fatalf("tier = %v", out.Tier)
	}
	if platform.setFields[fieldTotalParcel] != "0" {
		t.Fatalf("total_parcel = %q", platform.setFields[fieldTotalParcel])
	}
}
