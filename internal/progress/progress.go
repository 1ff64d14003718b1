// internal/progress/progress.go

// Package progress derives the pipeline position of a customer's rental job
// from whatever stage records exist. It is pure: callers load the rows, Compute
// does arithmetic and table lookups only.
package progress

import (
	"fmt"
	"time"

	"github.com/accessramp/ramp-backend/internal/models"
)

type StageKey string

const (
	StageLead         StageKey = "lead"
	StageQuote        StageKey = "quote"
	StageAgreement    StageKey = "agreement"
	StageInstallation StageKey = "installation"
	StageInvoice      StageKey = "invoice"
)

// Display variants understood by the dashboard.
const (
	VariantDefault = "default"
	VariantActive  = "active"
	VariantSuccess = "success"
	VariantDanger  = "danger"
)

// Records carries the (possibly absent) stage rows for one pipeline. When a
// customer has several quotes or invoices the caller picks the newest.
type Records struct {
	Lead         *models.Lead
	Quote        *models.Quote
	Agreement    *models.Agreement
	Installation *models.Installation
	Invoice      *models.Invoice
}

type Stage struct {
	Key        StageKey               `json:"key"`
	Label      string                 `json:"label"`
	Status     string                 `json:"status"`
	Complete   bool                   `json:"complete"`
	InProgress bool                   `json:"in_progress"`
	Variant    string                 `json:"variant"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}

type NextAction struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

type Progress struct {
	Stages       []Stage     `json:"stages"`
	CurrentStage int         `json:"current_stage"`
	Complete     bool        `json:"complete"`
	ElapsedDays  int         `json:"elapsed_days"`
	NextAction   *NextAction `json:"next_action,omitempty"`
}

// Compute evaluates the five pipeline stages against rec at the given instant.
func Compute(rec Records, now time.Time) Progress {
	stages := []Stage{
		leadStage(rec.Lead),
		quoteStage(rec.Quote),
		agreementStage(rec.Agreement),
		installationStage(rec.Installation),
		invoiceStage(rec.Invoice),
	}

	// The current stage is the furthest one still being worked; when nothing
	// is actively in progress, fall back to the first gap.
	current := -1
	for i := len(stages) - 1; i >= 0; i-- {
		if stages[i].InProgress {
			current = i
			break
		}
	}
	if current == -1 {
		current = len(stages) - 1
		for i, st := range stages {
			if !st.Complete {
				current = i
				break
			}
		}
	}
	stages[current].Variant = variantFor(stages[current])

	complete := true
	for _, st := range stages {
		if !st.Complete {
			complete = false
			break
		}
	}

	elapsed := 0
	if rec.Lead != nil && now.After(rec.Lead.CreatedAt) {
		elapsed = int(now.Sub(rec.Lead.CreatedAt).Hours() / 24)
	}

	return Progress{
		Stages:       stages,
		CurrentStage: current,
		Complete:     complete,
		ElapsedDays:  elapsed,
		NextAction:   nextAction(stages[current], rec),
	}
}

func variantFor(st Stage) string {
	switch {
	case st.Complete:
		return VariantSuccess
	case st.Status == string(models.AgreementStatusExpired):
		return VariantDanger
	case st.InProgress:
		return VariantActive
	default:
		return VariantDefault
	}
}

func leadStage(lead *models.Lead) Stage {
	st := Stage{Key: StageLead, Label: "Lead", Status: "none", Variant: VariantDefault}
	if lead == nil {
		return st
	}

	st.Status = string(lead.Status)
	st.Complete = lead.Status == models.LeadStatusWon || lead.Status == models.LeadStatusLost
	st.InProgress = !st.Complete
	if st.Complete {
		st.Variant = VariantSuccess
	}
	st.Detail = map[string]interface{}{
		"lead_id":  lead.ID,
		"timeline": lead.Timeline,
	}
	return st
}

func quoteStage(quote *models.Quote) Stage {
	st := Stage{Key: StageQuote, Label: "Quote", Status: "none", Variant: VariantDefault}
	if quote == nil {
		return st
	}

	st.Status = string(quote.Status)
	st.Complete = quote.Status.IsTerminal()
	st.InProgress = !st.Complete
	if st.Complete {
		st.Variant = VariantSuccess
	}
	st.Detail = map[string]interface{}{
		"quote_id":            quote.ID,
		"monthly_rental_rate": quote.MonthlyRentalRate,
		"setup_fee":           quote.SetupFee,
	}
	if quote.ValidUntil != nil {
		st.Detail["valid_until"] = quote.ValidUntil
	}
	return st
}

func agreementStage(agreement *models.Agreement) Stage {
	st := Stage{Key: StageAgreement, Label: "Agreement", Status: "none", Variant: VariantDefault}
	if agreement == nil {
		return st
	}

	st.Status = string(agreement.Status)
	st.Complete = agreement.Status == models.AgreementStatusSigned ||
		agreement.Status == models.AgreementStatusDeclined
	st.InProgress = !st.Complete
	if st.Complete {
		st.Variant = VariantSuccess
	}
	st.Detail = map[string]interface{}{
		"agreement_id": agreement.ID,
	}
	if agreement.Notes.SignPageURL != "" {
		st.Detail["sign_page_url"] = agreement.Notes.SignPageURL
	}
	if agreement.SignedDate != nil {
		st.Detail["signed_date"] = agreement.SignedDate
	}
	return st
}

func installationStage(installation *models.Installation) Stage {
	st := Stage{Key: StageInstallation, Label: "Installation", Status: "none", Variant: VariantDefault}
	if installation == nil {
		return st
	}

	switch {
	case installation.SignOff:
		st.Status = "complete"
		st.Complete = true
		st.Variant = VariantSuccess
	case installation.InstallationDate != nil:
		st.Status = "scheduled"
		st.InProgress = true
	default:
		st.Status = "pending"
		st.InProgress = true
	}
	st.Detail = map[string]interface{}{
		"installation_id": installation.ID,
		"installed_by":    installation.InstalledBy,
	}
	if installation.InstallationDate != nil {
		st.Detail["installation_date"] = installation.InstallationDate
	}
	return st
}

func invoiceStage(invoice *models.Invoice) Stage {
	st := Stage{Key: StageInvoice, Label: "Invoice", Status: "none", Variant: VariantDefault}
	if invoice == nil {
		return st
	}

	if invoice.Paid {
		st.Status = "paid"
		st.Complete = true
		st.Variant = VariantSuccess
	} else {
		st.Status = "unpaid"
		st.InProgress = true
	}
	st.Detail = map[string]interface{}{
		"invoice_id":   invoice.ID,
		"invoice_type": invoice.InvoiceType,
		"amount":       invoice.Amount,
	}
	return st
}

// actionEntry is one row of the static (stage, status) -> recommendation table.
type actionEntry struct {
	label       string
	description string
	link        string // format string receiving the stage record id
}

var actionTable = map[StageKey]map[string]actionEntry{
	StageLead: {
		"none":      {label: "Create lead", description: "No lead exists for this customer yet.", link: "/leads/new"},
		"new":       {label: "Contact lead", description: "Reach out to the customer and record the conversation.", link: "/leads/%s"},
		"contacted": {label: "Qualify lead", description: "Confirm the customer's mobility needs and timeline.", link: "/leads/%s"},
		"qualified": {label: "Create quote", description: "Measure the site and build a quote for this lead.", link: "/leads/%s/quote"},
		"quoted":    {label: "Follow up on quote", description: "A quote exists; check in with the customer.", link: "/leads/%s"},
	},
	StageQuote: {
		"draft": {label: "Send quote", description: "Email the quote with its acceptance link to the customer.", link: "/quotes/%s"},
		"sent":  {label: "Await acceptance", description: "The quote has been emailed; follow up if the customer is silent.", link: "/quotes/%s"},
	},
	StageAgreement: {
		"draft":   {label: "Send agreement", description: "Submit the rental agreement for e-signature.", link: "/agreements/%s"},
		"sent":    {label: "Await signature", description: "The agreement is with the customer for signing.", link: "/agreements/%s"},
		"expired": {label: "Resend agreement", description: "The signature request expired; send a fresh one.", link: "/agreements/%s"},
	},
	StageInstallation: {
		"pending":   {label: "Schedule installation", description: "Pick an installation date with the customer.", link: "/installations/%s"},
		"scheduled": {label: "Complete installation", description: "Install the ramp and record sign-off with photos.", link: "/installations/%s"},
	},
	StageInvoice: {
		"unpaid": {label: "Collect payment", description: "Send or re-send the payment link for the open invoice.", link: "/invoices/%s"},
	},
}

func nextAction(current Stage, rec Records) *NextAction {
	entries, ok := actionTable[current.Key]
	if !ok {
		return nil
	}
	entry, ok := entries[current.Status]
	if !ok {
		return nil
	}

	link := entry.link
	if id := stageRecordID(current.Key, rec); id != "" {
		link = fmt.Sprintf(entry.link, id)
	}
	return &NextAction{Label: entry.label, Description: entry.description, Link: link}
}

func stageRecordID(key StageKey, rec Records) string {
	switch key {
	case StageLead:
		if rec.Lead != nil {
			return rec.Lead.ID.String()
		}
	case StageQuote:
		if rec.Quote != nil {
			return rec.Quote.ID.String()
		}
	case StageAgreement:
		if rec.Agreement != nil {
			return rec.Agreement.ID.String()
		}
	case StageInstallation:
		if rec.Installation != nil {
			return rec.Installation.ID.String()
		}
	case StageInvoice:
		if rec.Invoice != nil {
			return rec.Invoice.ID.String()
		}
	}
	return ""
}
