package storefront

// Session identifies one installed shop and its API credential
type Session struct {
	Shop  string
	Token string
}

// Address is the subset of a storefront address we read
type Address struct {
	Phone string `json:"phone"`
}

// Customer is the subset of a storefront customer we read
type Customer struct {
	ID    int64  `json:"id"`
	Phone string `json:"phone"`
}

// Order is the subset of a storefront order the pipeline needs
type Order struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Note     string   `json:"note"`
	Tags     string   `json:"tags"`
	Gateways []string `json:"payment_gateway_names"`

	Customer        *Customer `json:"customer"`
	ShippingAddress *Address  `json:"shipping_address"`
	BillingAddress  *Address  `json:"billing_address"`
}

// CandidatePhones returns every phone slot on the order in priority
// order: billing address, shipping address, customer profile, then the
// order's own phone field
func (o Order) CandidatePhones() []string {
	out := make([]string, 0, 4)
	if o.BillingAddress != nil {
		out = append(out, o.BillingAddress.Phone)
	}
	if o.ShippingAddress != nil {
		out = append(out, o.ShippingAddress.Phone)
	}
	if o.Customer != nil {
		out = append(out, o.Customer.Phone)
	}
	out = append(out, o.Phone)
	return out
}

// Field is one namespaced metafield on an order
type Field struct {
	ID        int64  `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// wire envelopes

type orderEnvelope struct {
	Order Order `json:"order"`
}

type orderPatch struct {
	Order orderPatchBody `json:"order"`
}

type orderPatchBody struct {
	ID   int64   `json:"id"`
	Tags *string `json:"tags,omitempty"`
	Note *string `json:"note,omitempty"`
}

type fieldsEnvelope struct {
	Fields []Field `json:"metafields"`
}

type fieldEnvelope struct {
	Field Field `json:"metafield"`
}
