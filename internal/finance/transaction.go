package finance

import (
	"strconv"
	"strings"
	"time"

	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
)

// Transaction is the parsed, typed view of a manifest item declared in a
// `@transaction` context: the financial-transaction context module
// validates and attaches one of these to every such item.
type Transaction struct {
	From, To           *manifest.Item
	Paid, Cleared      *time.Time
	CoverStart, CoverEnd *time.Time
	Amount             Amount
	For                string
}

type transactionModule struct{}

// NewModule returns a factory for the `transaction` context module.
func NewModule() manifest.Factory {
	return func() manifest.ContextModule { return &transactionModule{} }
}

func (m *transactionModule) ContextType() string { return "transaction" }

func (m *transactionModule) OnDeclareItem(contexts []*manifest.Context, item *manifest.Item) error {
	item.Tags.Add("transaction")

	if !item.Tags.Has("from") {
		if acct, ok := defaultAccount(contexts); ok {
			item.Tags.Set("from", &acct)
		}
	}
	if !item.Tags.Has("to") {
		if acct, ok := defaultAccount(contexts); ok {
			item.Tags.Set("to", &acct)
		}
	}

	for _, ctx := range contexts {
		if ctx.Opts.Has("unverified") {
			item.Tags.Add("unverified")
			break
		}
	}
	return nil
}

func defaultAccount(contexts []*manifest.Context) (string, bool) {
	for i := len(contexts) - 1; i >= 0; i-- {
		if v, ok := contexts[i].Opts.Get("default-account"); ok {
			return v, true
		}
	}
	return "", false
}

func (m *transactionModule) OnExitManifest(items map[string]*manifest.Item, _ map[string]*manifest.ItemSet) error {
	for _, item := range items {
		if !item.Tags.Has("transaction") {
			continue
		}
		if err := parseTransaction(item, items); err != nil {
			return err
		}
	}
	return nil
}

func parseTransaction(item *manifest.Item, items map[string]*manifest.Item) error {
	fromRef, ok := item.Tags.Get("from")
	if !ok {
		return errs.New(errs.ManifestError, "transaction %q missing required tag 'from'", item.Ref)
	}
	toRef, ok := item.Tags.Get("to")
	if !ok {
		return errs.New(errs.ManifestError, "transaction %q missing required tag 'to'", item.Ref)
	}
	if fromRef == toRef {
		return errs.New(errs.ManifestError, "cannot create transaction %q from and to the same account", item.Ref)
	}
	from, ok := items[fromRef]
	if !ok {
		return errs.New(errs.ManifestError, "transaction %q references unknown account %q", item.Ref, fromRef)
	}
	to, ok := items[toRef]
	if !ok {
		return errs.New(errs.ManifestError, "transaction %q references unknown account %q", item.Ref, toRef)
	}

	paid, err := parseOptionalDate(item, "paid")
	if err != nil {
		return err
	}
	cleared, err := parseOptionalDate(item, "cleared")
	if err != nil {
		return err
	}
	if paid == nil && cleared == nil {
		return errs.New(errs.ManifestError, "transaction %q missing both a paid and cleared date (at least one is required)", item.Ref)
	}

	coverStart, err := parseOptionalDate(item, "coverStart")
	if err != nil {
		return err
	}
	coverEnd, err := parseOptionalDate(item, "coverEnd")
	if err != nil {
		return err
	}

	amountTag, ok := item.Tags.Get("amount")
	if !ok {
		return errs.New(errs.ManifestError, "transaction %q missing required tag 'amount'", item.Ref)
	}
	amount, err := ParseAmount(amountTag)
	if err != nil {
		return errs.Wrap(errs.ManifestError, err, "transaction %q", item.Ref)
	}

	forValue, _ := item.Tags.Get("for")

	item.Extra["transaction"] = &Transaction{
		From: from, To: to,
		Paid: paid, Cleared: cleared,
		CoverStart: coverStart, CoverEnd: coverEnd,
		Amount: amount,
		For:    forValue,
	}
	return nil
}

func parseOptionalDate(item *manifest.Item, tag string) (*time.Time, error) {
	raw, ok := item.Tags.Get(tag)
	if !ok {
		return nil, nil
	}
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return nil, errs.New(errs.ManifestError, "could not parse value %q of tag %q in item %q", raw, tag, item.Ref)
	}
	y, err1 := strconv.Atoi(parts[0])
	mo, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, errs.New(errs.ManifestError, "could not parse value %q of tag %q in item %q", raw, tag, item.Ref)
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Format("2006-01-02") != raw {
		return nil, errs.New(errs.ManifestError, "value of tag %q in transaction %q is not an ISO-8601 date (ie. 'YYYY-MM-DD')", tag, item.Ref)
	}
	return &t, nil
}
